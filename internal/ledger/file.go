package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// File writes the ledger as CSV. Each save goes to a temporary file in the
// target directory which is then renamed over the target.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Save(rows []Row) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Не удалось создать временный файл: %w", err)
	}
	tmpName := tmp.Name()

	if err := Write(tmp, rows); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("Не удалось сбросить файл на диск: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("Не удалось закрыть временный файл: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("Не удалось выставить права на файл: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("Не удалось заменить файл журнала: %w", err)
	}
	return nil
}

// Write emits the header line followed by rows in the given order.
func Write(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return fmt.Errorf("Не удалось записать заголовок: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(&rows, w); err != nil {
		return fmt.Errorf("Не удалось записать строки журнала: %w", err)
	}
	return nil
}
