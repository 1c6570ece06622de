package execute

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

var ErrLanguageNotFound = errors.New("language not found")

// Language describes how submitted code is written to disk and run.
// Commands are split on white space; no shell is involved.
type Language struct {
	ID         string `toml:"id"`
	Name       string `toml:"lang_name"`
	CodeFname  string `toml:"code_fname"`
	CompileCmd string `toml:"compile_cmd"`
	ExecCmd    string `toml:"exec_cmd"`

	// HelloWorldCode prints "hello world"; used to check the toolchain is installed.
	HelloWorldCode string `toml:"hello_world_code"`
}

func (l Language) validate() error {
	if l.ID == "" || l.CodeFname == "" || l.ExecCmd == "" {
		return fmt.Errorf("language specification incomplete; require id, code_fname, exec_cmd (id=%q)", l.ID)
	}
	return nil
}

type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
}

func NewRegistry() *Registry {
	r := &Registry{
		languages: make(map[string]Language),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) Register(lang Language) error {
	if err := lang.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
	return nil
}

func (r *Registry) Get(id string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[id]
	if !ok {
		return Language{}, fmt.Errorf("%w: %s", ErrLanguageNotFound, id)
	}
	return lang, nil
}

// List returns the registered languages ordered by id.
func (r *Registry) List() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].ID < langs[j].ID })
	return langs
}

// LoadFile registers every [[languages]] entry of a TOML file.
// Entries override defaults with the same id.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read languages file: %w", err)
	}
	var root struct {
		Languages []Language `toml:"languages"`
	}
	if err := toml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	for _, l := range root.Languages {
		if err := r.Register(l); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerDefaults() {
	defaults := []Language{
		{
			ID:        "python3",
			Name:      "Python 3",
			CodeFname: "main.py",
			ExecCmd:   "python3 main.py",

			HelloWorldCode: `print("hello world")`,
		},
		{
			ID:        "javascript",
			Name:      "JavaScript",
			CodeFname: "main.js",
			ExecCmd:   "node main.js",

			HelloWorldCode: `console.log("hello world");`,
		},
		{
			ID:         "cpp17",
			Name:       "C++17",
			CodeFname:  "main.cpp",
			CompileCmd: "g++ -std=c++17 -O2 -o main main.cpp",
			ExecCmd:    "./main",

			HelloWorldCode: "#include <iostream>\nint main() { std::cout << \"hello world\" << std::endl; }\n",
		},
		{
			ID:        "sh",
			Name:      "POSIX shell",
			CodeFname: "main.sh",
			ExecCmd:   "sh main.sh",

			HelloWorldCode: "echo hello world",
		},
	}
	for _, l := range defaults {
		r.languages[l.ID] = l
	}
}
