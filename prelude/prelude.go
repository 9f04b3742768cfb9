// Package prelude embeds the DSL's Lua source, one chunk per resource
// type plus the host-facts table, loaded into the script.Host before
// any recipe is evaluated (spec.md §4.1 "prelude").
package prelude

import "embed"

//go:embed *.lua
var files embed.FS

// Names lists the embedded prelude chunks in a fixed load order: the
// host facts table first (the resource forms don't depend on it, but
// loading it first keeps behavior deterministic across a future
// reordering), then one entry per resource type.
var Names = []string{
	"host.lua",
	"file.lua",
	"directory.lua",
	"execute.lua",
	"template.lua",
	"systemd_unit.lua",
	"docker_container.lua",
	"k8s_manifest.lua",
	"remote_file.lua",
	"package.lua",
}

// Load returns the embedded text of a named chunk.
func Load(name string) (string, error) {
	b, err := files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
