package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Scene-data packages served on the distribution channel.
const (
	PackageHeader     = "header"
	PackageNodes      = "nodes"
	PackageObjects    = "objects"
	PackageCharacters = "characters"
	PackageTextures   = "textures"
	PackageMaterials  = "materials"
	PackageCurve      = "curve"
)

// Packages lists every package name a peer may request.
var Packages = []string{
	PackageHeader,
	PackageNodes,
	PackageObjects,
	PackageCharacters,
	PackageTextures,
	PackageMaterials,
	PackageCurve,
}

// IsPackage reports whether name is a known package.
func IsPackage(name string) bool {
	for _, p := range Packages {
		if p == name {
			return true
		}
	}
	return false
}

// PackageSource supplies the byte buffers sent in reply to scene-data
// requests. A missing package is reported with an error and answered with an
// empty reply.
type PackageSource interface {
	Package(ctx context.Context, name string) ([]byte, error)
}

// Direction marks a journaled message as received or sent.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Journal records every inbound and outbound message.
type Journal interface {
	Record(ctx context.Context, direction string, msg []byte) error
}

// answer replies to one request and releases the replier goroutine.
func (e *Engine) answer(it inbound) {
	defer close(it.answered)

	e.mu.Lock()
	rep, ctx := e.rep, e.ctx
	e.mu.Unlock()
	if rep == nil {
		return
	}

	name := strings.TrimSpace(string(it.Msg))
	reply := e.lookup(ctx, name)
	if err := rep.Reply(reply); err != nil {
		slog.Warn("reply failed", "package", name, "error", err)
		return
	}
	slog.Debug("package served", "package", name, "bytes", len(reply))
}

func (e *Engine) lookup(ctx context.Context, name string) []byte {
	if !IsPackage(name) {
		slog.Debug("unknown package requested", "package", name)
		return []byte{}
	}
	if e.packages == nil {
		return []byte{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.ReplyTimeout)
	defer cancel()

	data, err := e.packages.Package(ctx, name)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Debug("package unavailable", "package", name, "error", err)
		}
		return []byte{}
	}
	return data
}
