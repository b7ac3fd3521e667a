package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/stembed/internal/model"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Specs holds the definitions compiled from one CUE instance, each list in
// declaration order.
type Specs struct {
	Processes       []*model.Process
	Implementations []*model.Implementation
	Spacetimes      []*model.Spacetime
	FileCount       int // number of CUE files found
}

// Implementation returns the implementation with the given name.
func (s *Specs) Implementation(name string) (*model.Implementation, bool) {
	for _, impl := range s.Implementations {
		if impl.Name() == name {
			return impl, true
		}
	}
	return nil, false
}

// Spacetime returns the spacetime with the given name.
func (s *Specs) Spacetime(name string) (*model.Spacetime, bool) {
	for _, st := range s.Spacetimes {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// Empty reports whether no definitions were compiled.
func (s *Specs) Empty() bool {
	return len(s.Processes) == 0 && len(s.Implementations) == 0 && len(s.Spacetimes) == 0
}

// LoadDir loads and compiles every CUE file in dir as one instance.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*Specs, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&CompileError{Code: ErrCodeNotFound, Field: "specs", Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&CompileError{Code: ErrCodeNotFound, Field: "specs", Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&CompileError{Code: ErrCodeNotFound, Field: "specs", Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&CompileError{Code: ErrCodeScanError, Field: "specs", Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&CompileError{Code: ErrCodeNoFiles, Field: "specs", Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&CompileError{Code: ErrCodeLoadFailed, Field: "specs", Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&CompileError{Code: ErrCodeLoadFailed, Field: "specs", Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&CompileError{Code: ErrCodeBuildFailed, Field: "specs", Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	specs, errs := LoadValue(value, mode)
	if specs != nil {
		specs.FileCount = len(cueFiles)
	}
	return specs, errs
}

// LoadValue compiles the process, implementation and spacetime sections of
// an already built CUE value. Processes are compiled first so implementations
// can reference processes declared in any file.
func LoadValue(value cue.Value, mode LoadMode) (*Specs, []error) {
	var errs []error
	specs := &Specs{}
	processes := make(map[string]*model.Process)

	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	stop := eachField(value, "process", fail, func(name string, v cue.Value) error {
		p, err := CompileProcess(v)
		if err != nil {
			return err
		}
		processes[name] = p
		specs.Processes = append(specs.Processes, p)
		return nil
	})
	if stop {
		return specs, errs
	}

	stop = eachField(value, "implementation", fail, func(_ string, v cue.Value) error {
		impl, err := CompileImplementation(v, processes)
		if err != nil {
			return err
		}
		specs.Implementations = append(specs.Implementations, impl)
		return nil
	})
	if stop {
		return specs, errs
	}

	stop = eachField(value, "spacetime", fail, func(_ string, v cue.Value) error {
		st, err := CompileSpacetime(v)
		if err != nil {
			return err
		}
		specs.Spacetimes = append(specs.Spacetimes, st)
		return nil
	})
	if stop {
		return specs, errs
	}

	if specs.Empty() && len(errs) == 0 {
		errs = append(errs, &CompileError{
			Code:    ErrCodeGeneric,
			Field:   "specs",
			Message: "no processes, implementations or spacetimes found in specs",
		})
	}
	return specs, errs
}

// eachField compiles every field of a top-level section. It returns true
// when fail asks to stop.
func eachField(value cue.Value, section string, fail func(error) bool, compile func(string, cue.Value) error) bool {
	sectionVal := value.LookupPath(cue.ParsePath(section))
	if !sectionVal.Exists() {
		return false
	}
	iter, err := sectionVal.Fields()
	if err != nil {
		return fail(&CompileError{
			Code:    ErrCodeGeneric,
			Field:   section,
			Message: fmt.Sprintf("iterating %s: %v", section, err),
			Pos:     sectionVal.Pos(),
		})
	}
	for iter.Next() {
		if err := compile(iter.Label(), iter.Value()); err != nil {
			if fail(err) {
				return true
			}
		}
	}
	return false
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
