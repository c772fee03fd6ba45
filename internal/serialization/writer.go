package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weft-ml/weft/internal/linalg"
)

// Save writes the model file to path.
func Save(path string, mf *ModelFile) error {
	//nolint:gosec // G304: the path is the user's chosen output file
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("serialization: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w, mf); err != nil {
		return fmt.Errorf("serialization: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("serialization: flush %s: %w", path, err)
	}
	return f.Close()
}

func write(w io.Writer, mf *ModelFile) error {
	if _, err := w.Write([]byte(MagicBytes)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return err
	}

	var flags uint32
	if mf.Attn != nil {
		flags |= flagHasAttention
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}

	cfgRaw, err := yaml.Marshal(mf.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeBytes(w, cfgRaw); err != nil {
		return err
	}

	if err := writeDict(w, mf); err != nil {
		return err
	}

	if err := writeMatrix(w, mf.Input); err != nil {
		return err
	}
	if err := writeMatrix(w, mf.Output); err != nil {
		return err
	}
	if mf.Attn != nil {
		if err := writeMatrix(w, mf.Attn); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, mf.Bias.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeDict(w io.Writer, mf *ModelFile) error {
	tokens := mf.Dict.Tokens()
	if err := binary.Write(w, binary.LittleEndian, uint64(len(tokens))); err != nil {
		return err
	}
	for _, t := range tokens {
		if err := writeBytes(w, []byte(t)); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, mf.Dict.Counts())
}

func writeMatrix(w io.Writer, m *linalg.Matrix) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(m.Rows)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(m.Cols)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
