// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
)

// SaveConfig writes the user-facing settings of cmd to outfile as yaml,
// with flags changed on the command line included even when not marked
// user. Values in overrides win over everything.
func SaveConfig(cmd *cobra.Command, outfile string, overrides map[string]string) error {
	type setting struct {
		name  string
		value string
		usage string
	}
	var settings []setting

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || readBoolAnnotation(f, "hidden") {
			return
		}
		if !readBoolAnnotation(f, "user") && !f.Changed {
			return
		}
		value := f.Value.String()
		if override, ok := overrides[f.Name]; ok {
			value = override
		}
		settings = append(settings, setting{name: f.Name, value: value, usage: f.Usage})
	})
	sort.Slice(settings, func(i, j int) bool { return settings[i].name < settings[j].name })

	var b strings.Builder
	for _, s := range settings {
		if s.usage != "" {
			fmt.Fprintf(&b, "# %s\n", s.usage)
		}
		fmt.Fprintf(&b, "%s: %q\n\n", s.name, s.value)
	}
	return atomicWrite(outfile, 0600, []byte(b.String()))
}

func readBoolAnnotation(f *pflag.Flag, key string) bool {
	annotation := f.Annotations[key]
	return len(annotation) > 0 && annotation[0] == "true"
}

func atomicWrite(outfile string, mode os.FileMode, data []byte) (err error) {
	fh, err := os.CreateTemp(filepath.Dir(outfile), filepath.Base(outfile))
	if err != nil {
		return errs.Wrap(err)
	}
	defer func() {
		if err != nil {
			err = errs.Combine(err, fh.Close(), os.Remove(fh.Name()))
		}
	}()
	if _, err := fh.Write(data); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Chmod(mode); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Sync(); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Close(); err != nil {
		return errs.Wrap(err)
	}
	return errs.Wrap(os.Rename(fh.Name(), outfile))
}
