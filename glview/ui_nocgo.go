//go:build tinygo || !cgo

package glview

import (
	"errors"

	"github.com/soypat/dynamit/gldraw"
)

func run(roots []*gldraw.Object, cfg Config) error {
	return errors.New("require cgo for UI rendering")
}
