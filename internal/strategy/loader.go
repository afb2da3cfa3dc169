// Package strategy loads strategy tables written in CUE.
//
// A strategy file declares, per state, the proposal probabilities of every
// proposer and the acceptance probabilities of the responders on each
// approval committee:
//
//	strategy: "( )": {
//		proposals: W: {"( )": 0, "(WT)": 1}
//		acceptances: T: W: "(WT)": 1
//	}
//
// Files are unified with an embedded schema that bounds every probability to
// [0,1] and rejects unknown fields. Omitted acceptance entries are not
// applicable: the responder is not on the committee.
package strategy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/farsight/internal/game"
)

//go:embed schema.cue
var schemaSource string

// LoadMode controls how errors are handled when loading a directory.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // File could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE compile or schema error

	ErrCodeNoStrategy = "E201" // No strategy block
	ErrCodeBadEntry   = "E202" // Entry is not a probability
)

// LoadError represents an error that occurred while loading a strategy file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult contains the tables loaded from a directory, keyed by file path.
type LoadResult struct {
	Tables    map[string]*game.StrategyTable
	FileCount int
}

// Paths returns the loaded file paths in sorted order.
func (r *LoadResult) Paths() []string {
	paths := make([]string, 0, len(r.Tables))
	for p := range r.Tables {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LoadFile reads and compiles one strategy file.
func LoadFile(path string) (*game.StrategyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("strategy table not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles strategy source; filename is used in positions.
func LoadBytes(filename string, data []byte) (*game.StrategyTable, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("compiling schema: %v", err)}
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if !v.LookupPath(cue.ParsePath("strategy")).Exists() {
		return nil, &LoadError{Code: ErrCodeNoStrategy, Message: "no strategy block found", Pos: v.Pos()}
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(unified)
}

// LoadDir loads every .cue file under dir as a separate table.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("strategy directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing strategy directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{Tables: make(map[string]*game.StrategyTable), FileCount: len(files)}
	var errs []error
	for _, f := range files {
		table, err := LoadFile(f)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Tables[f] = table
	}
	return result, errs
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

// Compile converts a validated CUE value into a strategy table. v is the
// file root; the table is read from its "strategy" field.
func Compile(v cue.Value) (*game.StrategyTable, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("strategy"))
	if !root.Exists() {
		return nil, &LoadError{Code: ErrCodeNoStrategy, Message: "no strategy block found", Pos: v.Pos()}
	}

	table := game.NewStrategyTable()
	states, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for states.Next() {
		state := states.Label()

		err := eachProb(states.Value().LookupPath(cue.ParsePath("proposals")), 2, func(labels []string, p float64) {
			table.SetProposal(state, game.Player(labels[0]), labels[1], p)
		})
		if err != nil {
			return nil, err
		}

		err = eachProb(states.Value().LookupPath(cue.ParsePath("acceptances")), 3, func(labels []string, p float64) {
			table.SetAcceptance(state, game.Player(labels[0]), game.Player(labels[1]), labels[2], p)
		})
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

// eachProb walks a nested struct of the given depth and calls fn with the
// labels on the path to every leaf probability.
func eachProb(v cue.Value, depth int, fn func(labels []string, p float64)) error {
	if !v.Exists() {
		return nil
	}
	return walk(v, depth, nil, fn)
}

func walk(v cue.Value, depth int, labels []string, fn func([]string, float64)) error {
	if depth == 0 {
		p, err := v.Float64()
		if err != nil {
			return &LoadError{Code: ErrCodeBadEntry, Message: fmt.Sprintf("entry %v is not a probability: %v", labels, err), Pos: v.Pos()}
		}
		fn(labels, p)
		return nil
	}

	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		next := append(append([]string(nil), labels...), iter.Label())
		if err := walk(iter.Value(), depth-1, next, fn); err != nil {
			return err
		}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: ErrCodeBuildFailed, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// IsLoadError reports whether err is a *LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == code
}
