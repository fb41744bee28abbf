// Package sandbox confines every path a client names to the authenticated
// user's home tree.
package sandbox

import (
	"fmt"
	"ftp-lab/errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const parentDir = ".."

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validate    = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dirname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	return v
}

// Validator exposes the package validator with the "dirname" tag registered.
func Validator() *validator.Validate {
	return validate
}

type dirName struct {
	Name string `validate:"required,max=255,dirname"`
}

// ValidateDirName accepts letters, digits, '-' and '_' only.
func ValidateDirName(name string) error {
	if err := validate.Struct(dirName{Name: name}); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrIllegalName, name)
	}
	return nil
}

// Resolve maps requested onto an absolute path inside home:
// ".." is the parent of cwd, a leading "/" is relative to home, anything
// else is relative to cwd. Paths landing outside home are rejected.
func Resolve(home, cwd, requested string) (string, error) {
	var candidate string
	switch {
	case requested == parentDir:
		candidate = filepath.Dir(cwd)
	case strings.HasPrefix(requested, "/"):
		candidate = filepath.Join(home, strings.TrimLeft(requested, "/"))
	default:
		candidate = filepath.Join(cwd, requested)
	}
	return confine(home, candidate)
}

// ResolveDir is Resolve for cd: the target must also be an existing directory.
func ResolveDir(home, cwd, requested string) (string, error) {
	path, err := Resolve(home, cwd, requested)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", errors.ErrNotFound, requested)
	}
	return path, nil
}

// ResolveIn joins name onto base, which must itself lie inside home.
// It is used for names that are always relative to one directory
// (get, put, rm and mkdir use cwd; resend uses home).
func ResolveIn(home, base, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", errors.ErrNotFound)
	}
	return confine(home, filepath.Join(base, name))
}

// Contains reports whether path is home or lies below it.
func Contains(home, path string) bool {
	home = filepath.Clean(home)
	path = filepath.Clean(path)
	return path == home || strings.HasPrefix(path, home+string(filepath.Separator))
}

func confine(home, candidate string) (string, error) {
	candidate = filepath.Clean(candidate)
	if !Contains(home, candidate) {
		return "", fmt.Errorf("%w: %s", errors.ErrPathRejected, candidate)
	}
	// A symlink inside home may still point outside of it.
	if real, err := filepath.EvalSymlinks(candidate); err == nil {
		realHome, herr := filepath.EvalSymlinks(home)
		if herr == nil && !Contains(realHome, real) {
			return "", fmt.Errorf("%w: %s links outside home", errors.ErrPathRejected, candidate)
		}
	}
	return candidate, nil
}
