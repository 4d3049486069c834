package fs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Hasher names a digest used for content hashes.
type Hasher interface {
	Name() string
	New() hash.Hash
}

type hasher struct {
	name string
	new  func() hash.Hash
}

func (h hasher) Name() string   { return h.name }
func (h hasher) New() hash.Hash { return h.new() }

var (
	MD5  Hasher = hasher{name: "md5", new: md5.New}
	XXH3 Hasher = hasher{name: "xxh3", new: func() hash.Hash { return xxh3.New() }}
)

var hashers = map[string]Hasher{
	MD5.Name():  MD5,
	XXH3.Name(): XXH3,
}

// HasherByName looks up a hasher, case-insensitively.
func HasherByName(name string) (Hasher, error) {
	h, ok := hashers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown hash %q (known: %s)", name, strings.Join(HasherNames(), ", "))
	}
	return h, nil
}

// HasherNames lists the supported hash names, sorted.
func HasherNames() []string {
	names := make([]string, 0, len(hashers))
	for n := range hashers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// hashWithRetry digests path and retries when the file moves under the read.
// A file whose mtime or size differs after the read is treated as transient.
func hashWithRetry(ctx context.Context, f FS, h Hasher, path string) (string, error) {
	var sum string
	err := retry(ctx, "hash "+path, func() error {
		before, err := f.Stat(path)
		if err != nil {
			return err
		}

		s, err := hashOnce(h, path)
		if err != nil {
			return err
		}

		after, err := f.Stat(path)
		if err != nil {
			return err
		}
		if sourceChanged(before, after) {
			return errChangedDuringHash
		}

		sum = s
		return nil
	})
	return sum, err
}

func sourceChanged(orig, now FileInfo) bool {
	if now.ID.Known() && orig.ID.Known() && now.ID != orig.ID {
		return true
	}
	if !now.MTime.Equal(orig.MTime) {
		return true
	}
	return now.Size != orig.Size
}

func hashOnce(h Hasher, path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	d := h.New()
	if _, err := io.Copy(d, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
