package toolchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// NodeBundler drives esbuild through a Node script. The MDX loader is a
// JS-API plugin, so the esbuild CLI alone cannot bundle documents; the
// script receives a JSON request file and writes an esbuild metafile back.
type NodeBundler struct {
	Node   string // node executable
	Script string // driver script path
}

func NewNodeBundler(node, script string) *NodeBundler {
	return &NodeBundler{Node: node, Script: script}
}

// bundleRequestFile mirrors the JSON contract of the driver script.
type bundleRequestFile struct {
	EntryPoints map[string]string `json:"entryPoints"`
	Outdir      string            `json:"outdir"`
	WorkingDir  string            `json:"workingDir"`
	Platform    string            `json:"platform"`
	Hashed      bool              `json:"hashed"`
	Metafile    string            `json:"metafile"`
}

// metafile is the slice of esbuild's metafile format the build reads back.
type metafile struct {
	Outputs map[string]struct {
		EntryPoint string `json:"entryPoint"`
	} `json:"outputs"`
}

func (b *NodeBundler) Bundle(ctx context.Context, req BundleRequest) (*BundleResult, error) {
	if len(req.EntryPoints) == 0 {
		return nil, fmt.Errorf("%w: no entry points", ErrBundleFailed)
	}

	scratch, err := os.MkdirTemp("", "sitebuilder-bundle-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	metaPath := filepath.Join(scratch, "meta.json")
	reqPath := filepath.Join(scratch, "request.json")
	payload, err := json.Marshal(bundleRequestFile{
		EntryPoints: req.EntryPoints,
		Outdir:      req.Outdir,
		WorkingDir:  req.WorkingDir,
		Platform:    string(req.Platform),
		Hashed:      req.Hashed,
		Metafile:    metaPath,
	})
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(reqPath, payload, 0o644); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, b.Node, b.Script, reqPath)
	cmd.Dir = req.WorkingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking bundler",
		logfields.Tool(b.Node),
		logfields.Count(len(req.EntryPoints)),
		logfields.Dir(req.Outdir))

	if err := cmd.Run(); err != nil {
		if out := toolOutput(&stdout, &stderr); out != "" {
			return nil, fmt.Errorf("%w: %w: %s", ErrBundleFailed, err, out)
		}
		return nil, fmt.Errorf("%w: %w", ErrBundleFailed, err)
	}

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: driver wrote no metafile: %w", ErrBundleFailed, err)
	}
	var mf metafile
	if err := json.Unmarshal(meta, &mf); err != nil {
		return nil, fmt.Errorf("%w: malformed metafile: %w", ErrBundleFailed, err)
	}

	return resolveOutputs(req, mf)
}

// resolveOutputs maps requested entry names back to the files the bundler
// wrote, using the metafile's entry-point attribution. Hashed file names
// make the output paths unpredictable, so the attribution is the only
// stable association.
func resolveOutputs(req BundleRequest, mf metafile) (*BundleResult, error) {
	bySource := make(map[string]string, len(req.EntryPoints))
	for name, src := range req.EntryPoints {
		rel, err := filepath.Rel(req.WorkingDir, src)
		if err != nil {
			rel = src
		}
		bySource[filepath.ToSlash(rel)] = name
	}

	res := &BundleResult{EntryFiles: make(map[string]string, len(req.EntryPoints))}
	for out, info := range mf.Outputs {
		res.Files = append(res.Files, out)
		if info.EntryPoint == "" {
			continue
		}
		if name, ok := bySource[info.EntryPoint]; ok {
			res.EntryFiles[name] = out
		}
	}
	sort.Strings(res.Files)

	for name := range req.EntryPoints {
		if _, ok := res.EntryFiles[name]; !ok {
			return nil, fmt.Errorf("%w: metafile lists no output for entry %s", ErrBundleFailed, name)
		}
	}
	return res, nil
}
