package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/dict"
	"github.com/weft-ml/weft/internal/linalg"
)

// Load reads a model file written by Save.
func Load(path string) (*ModelFile, error) {
	//nolint:gosec // G304: the path is the user's chosen model file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: open %s: %w", path, err)
	}
	defer f.Close()

	mf, err := read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("serialization: read %s: %w", path, err)
	}
	return mf, nil
}

func read(r io.Reader) (*ModelFile, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}
	var flags uint32
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, err
	}

	cfgRaw, err := readBytes(r)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := yaml.Unmarshal(cfgRaw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	d, err := readDict(r, cfg)
	if err != nil {
		return nil, err
	}

	mf := &ModelFile{Config: cfg, Dict: d}
	if mf.Input, err = readMatrix(r); err != nil {
		return nil, err
	}
	if mf.Output, err = readMatrix(r); err != nil {
		return nil, err
	}
	if flags&flagHasAttention != 0 {
		if mf.Attn, err = readMatrix(r); err != nil {
			return nil, err
		}
		mf.Bias = linalg.NewVector(mf.Attn.Cols)
		if err := binary.Read(r, binary.LittleEndian, mf.Bias.Data); err != nil {
			return nil, err
		}
	}
	return mf, nil
}

func readDict(r io.Reader, cfg *config.Config) (*dict.Dict, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	tokens := make([]string, n)
	for i := range tokens {
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		tokens[i] = string(b)
	}
	counts := make([]int64, n)
	if err := binary.Read(r, binary.LittleEndian, counts); err != nil {
		return nil, err
	}
	tok, err := dict.NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	return dict.FromParts(tokens, counts, tok), nil
}

func readMatrix(r io.Reader) (*linalg.Matrix, error) {
	var rows, cols uint64
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, err
	}
	m := linalg.NewMatrix(int(rows), int(cols))
	if err := binary.Read(r, binary.LittleEndian, m.Data); err != nil {
		return nil, err
	}
	return m, nil
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
