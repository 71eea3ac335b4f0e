//go:build wavpack

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/drgolem/wvmem/pkg/config"
	"github.com/drgolem/wvmem/pkg/lpcpack"
	"github.com/drgolem/wvmem/pkg/types"
	"github.com/drgolem/wvmem/pkg/wavpack"
)

func newEngine(name string) (types.Engine, error) {
	switch name {
	case config.EngineLpcpack:
		return lpcpack.New(), nil
	case config.EngineWavpack:
		slog.Debug("Using libwavpack", "version", wavpack.Version())
		return wavpack.New(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}
