package shell

import (
	"io/ioutil"
	"path/filepath"
	"strings"
)

func fileCompleter(args []string) []string {
	prefix := ""
	if len(args) > 0 {
		prefix = args[len(args)-1]
	}
	dir := filepath.Dir(prefix)
	if !strings.Contains(prefix, "/") {
		dir = "."
	}

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil
	}
	var options []string
	for _, e := range entries {
		name := e.Name()
		if dir != "." {
			name = filepath.Join(dir, name)
		}
		if e.IsDir() {
			options = append(options, name+"/")
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".pdf" || ext == ".xfdf" {
			options = append(options, name)
		}
	}
	return options
}
