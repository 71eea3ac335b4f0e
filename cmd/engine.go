//go:build !wavpack

package cmd

import (
	"fmt"

	"github.com/drgolem/wvmem/pkg/config"
	"github.com/drgolem/wvmem/pkg/lpcpack"
	"github.com/drgolem/wvmem/pkg/types"
)

func newEngine(name string) (types.Engine, error) {
	switch name {
	case config.EngineLpcpack:
		return lpcpack.New(), nil
	case config.EngineWavpack:
		return nil, fmt.Errorf("engine %q not built in (rebuild with -tags wavpack)", name)
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}
