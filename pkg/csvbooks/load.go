package csvbooks

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

// Load reads a whole dataset from r and parses it. Binary content is rejected
// before parsing.
func Load(r io.Reader, opts ParseOptions) ([]*models.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if !isText(mimetype.Detect(data)) {
		return nil, ErrNotText
	}
	return Parse(string(data), opts)
}

// LoadFile parses the dataset file at path.
func LoadFile(path string, opts ParseOptions) ([]*models.Book, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset: %s", path)
	}
	defer f.Close()

	return Load(f, opts)
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
