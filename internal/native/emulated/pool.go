package emulated

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const maxMetaKernelDepth = 8

type poolValue struct {
	nums  []float64
	strs  []string
	isStr bool
}

// The kernel pool is process-wide, like the error state.
var kpool = struct {
	mu     sync.Mutex
	vars   map[string]*poolValue
	loaded []string
	spk    []*spkFile
}{
	vars: make(map[string]*poolValue),
}

// Kclear unloads every kernel and empties the pool.
func Kclear() {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	kpool.vars = make(map[string]*poolValue)
	kpool.loaded = nil
	kpool.spk = nil
}

// Loaded returns the loaded kernel paths in load order.
func Loaded() []string {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	return slices.Clone(kpool.loaded)
}

func poolGet(name string) (*poolValue, bool) {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	v, ok := kpool.vars[name]
	return v, ok
}

// poolNumbers returns a numeric pool variable, signalling when it is missing
// or holds strings.
func poolNumbers(name, short string) ([]float64, bool) {
	v, ok := poolGet(name)
	if !ok {
		signal(short, "The variable %s could not be found in the kernel pool.", name)
		return nil, false
	}
	if v.isStr {
		signal("SPICE(TYPEMISMATCH)", "The kernel pool variable %s has character type; numeric data were expected.", name)
		return nil, false
	}
	return v.nums, true
}

func furnsh(path string, depth int) {
	p := strings.TrimSpace(path)
	if p == "" {
		signal("SPICE(BLANKFILENAME)", "The input filename is blank.")
		return
	}
	if depth > maxMetaKernelDepth {
		signal("SPICE(RECURSIVELOADING)", "Meta-kernel nesting exceeds %d levels while loading %s.", maxMetaKernelDepth, p)
		return
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		signal("SPICE(NOSUCHFILE)", "The file '%s' does not exist.", p)
		return
	}
	if err != nil {
		signal("SPICE(FILEREADFAILED)", "The file '%s' could not be read: %v", p, err)
		return
	}
	if isBinaryKernel(data) {
		signal("SPICE(UNSUPPORTEDBFF)", "The file '%s' is a binary kernel; only text kernels can be loaded.", p)
		return
	}

	k, err := parseTextKernel(string(data))
	if err != nil {
		signal("SPICE(SYNTAXERROR)", "The kernel '%s' could not be parsed: %v", p, err)
		return
	}

	if k.idWord == "KPL/SPK" {
		spk, err := newSPKFile(p, k)
		if err != nil {
			signal("SPICE(INVALIDFORMAT)", "The SPK file '%s' is invalid: %v", p, err)
			return
		}
		kpool.mu.Lock()
		kpool.spk = slices.DeleteFunc(kpool.spk, func(f *spkFile) bool { return f.path == p })
		kpool.spk = append(kpool.spk, spk)
		kpool.mu.Unlock()
		markLoaded(p)
		return
	}

	if !mergeAssignments(k.assignments) {
		return
	}
	markLoaded(p)

	for _, next := range metaKernelFiles(k.assignments) {
		furnsh(next, depth+1)
		if failed() {
			return
		}
	}
}

func markLoaded(p string) {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	kpool.loaded = slices.DeleteFunc(kpool.loaded, func(s string) bool { return s == p })
	kpool.loaded = append(kpool.loaded, p)
}

func isBinaryKernel(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.HasPrefix(head, []byte("DAF/")) ||
		bytes.HasPrefix(head, []byte("DAS/")) ||
		bytes.HasPrefix(head, []byte("NAIF/DAF")) ||
		bytes.IndexByte(head, 0) >= 0
}

func mergeAssignments(as []assignment) bool {
	if name, ok := mergeLocked(as); !ok {
		signal("SPICE(TYPEMISMATCH)", "The kernel pool variable %s cannot be extended with values of a different type.", name)
		return false
	}
	return true
}

func mergeLocked(as []assignment) (string, bool) {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()

	for _, a := range as {
		cur, exists := kpool.vars[a.name]
		if a.add && exists {
			if cur.isStr != a.isStr {
				return a.name, false
			}
			cur.nums = append(cur.nums, a.nums...)
			cur.strs = append(cur.strs, a.strs...)
			continue
		}
		kpool.vars[a.name] = &poolValue{
			nums:  slices.Clone(a.nums),
			strs:  slices.Clone(a.strs),
			isStr: a.isStr,
		}
	}
	return "", true
}

// metaKernelFiles expands KERNELS_TO_LOAD using PATH_SYMBOLS and PATH_VALUES
// from the same file.
func metaKernelFiles(as []assignment) []string {
	var files, symbols, values []string
	for _, a := range as {
		if !a.isStr {
			continue
		}
		switch a.name {
		case "KERNELS_TO_LOAD":
			files = appendOrReplace(files, a)
		case "PATH_SYMBOLS":
			symbols = appendOrReplace(symbols, a)
		case "PATH_VALUES":
			values = appendOrReplace(values, a)
		}
	}
	if len(files) == 0 {
		return nil
	}

	out := make([]string, 0, len(files))
	for _, f := range files {
		for i, sym := range symbols {
			if i < len(values) {
				f = strings.ReplaceAll(f, "$"+sym, values[i])
			}
		}
		out = append(out, f)
	}
	return out
}

func appendOrReplace(dst []string, a assignment) []string {
	if a.add {
		return append(dst, a.strs...)
	}
	return slices.Clone(a.strs)
}
