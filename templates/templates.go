// Package templates stamps built-in project skeletons into the workspace.
package templates

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"valyxo/errors"
	"valyxo/vfs"
)

// Template is one project skeleton. File contents may reference the project
// name as {{name}}.
type Template struct {
	Name        string
	Description string
	Files       map[string]string
}

var builtins = map[string]Template{
	"script": {
		Name:        "script",
		Description: "single-file script project",
		Files: map[string]string{
			"main.vx": "# {{name}}\nset greeting = \"Hello from {{name}}\"\nprint greeting\n",
			"README.md": "# {{name}}\n\nRun it with:\n\n    run {{name}}/main.vx\n",
		},
	},
	"lib": {
		Name:        "lib",
		Description: "script project split into a library and an entry point",
		Files: map[string]string{
			"lib.vx": "func announce(what) {\nprint \"[{{name}}] \" + what\n}\n",
			"main.vx": "import \"{{name}}/lib.vx\"\nannounce(\"starting\")\n",
			"README.md": "# {{name}}\n\nEntry point main.vx imports lib.vx.\n",
		},
	},
	"report": {
		Name:        "report",
		Description: "looping report script with a data file",
		Files: map[string]string{
			"report.vx": "set total = 0\nfor i in 1 to 10 {\nset total = total + i\n}\nprint \"{{name}} total:\", total\n",
			"data.txt":  "sample data for {{name}}\n",
		},
	},
}

// Names returns the available template names sorted
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a template's one-line description
func Describe(name string) (string, bool) {
	t, ok := builtins[name]
	return t.Description, ok
}

// Stamp creates a new project directory from a template. The target
// directory must not already exist.
func Stamp(fs *vfs.FS, templateName, projectName string) error {
	t, ok := builtins[templateName]
	if !ok {
		return errors.NewUserError("NO_SUCH_TEMPLATE", fmt.Sprintf("no such template: '%s'", templateName)).
			WithHint("see available templates with: create list")
	}
	projectName = strings.TrimSpace(projectName)
	if projectName == "" || strings.ContainsAny(projectName, "/ \t") {
		return errors.NewUserError("BAD_PROJECT_NAME", "project name must be a single path segment")
	}
	if fs.Exists(projectName) {
		return errors.NewUserError("PROJECT_EXISTS", fmt.Sprintf("'%s' already exists", projectName))
	}

	if err := fs.Mkdir(projectName); err != nil {
		return err
	}
	for file, content := range t.Files {
		expanded := strings.ReplaceAll(content, "{{name}}", projectName)
		if err := fs.WriteFile(path.Join(projectName, file), expanded); err != nil {
			return err
		}
	}
	return nil
}
