package sensor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/rangefinder/internal/errors"
)

// requireAttr fails with ErrDeviceNotFound unless dir/name exists
func requireAttr(dir, name string) error {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return errors.New().Wrap(ErrDeviceNotFound, err).WithData(path)
	}

	return nil
}

func hasAttr(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func readAttr(ctx context.Context, dir, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.New().Wrap(ErrReadAttribute, err).WithData(path)
	}

	return strings.TrimSpace(string(b)), nil
}

func readInt(ctx context.Context, dir, name string) (int64, error) {
	s, err := readAttr(ctx, dir, name)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New().Wrap(ErrParseAttribute, err).WithData(filepath.Join(dir, name))
	}

	return v, nil
}

func readFloat(ctx context.Context, dir, name string) (float64, error) {
	s, err := readAttr(ctx, dir, name)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New().Wrap(ErrParseAttribute, err).WithData(filepath.Join(dir, name))
	}

	return v, nil
}
