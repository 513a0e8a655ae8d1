package stripper

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// TempPath returns where the rewritten copy of path is written.
func (s *Stripper) TempPath(path string) string {
	return filepath.Join(s.tempDir, "tmp_"+filepath.Base(path))
}

// ProcessFile rewrites path into its temporary file. When the overwrite
// flag is set and no error occurred, the source is replaced with the
// rewritten copy and the temporary file is deleted.
func (s *Stripper) ProcessFile(path string) ErrorMask {
	return s.processFile(path).Errors
}

func (s *Stripper) processFile(path string) Result {
	in, err := os.Open(path)
	if err != nil {
		s.logf(slog.LevelWarn, "%v", fmt.Errorf("failed to open source file '%s': %w", path, err))
		return Result{Errors: ErrSourceFileOpen}
	}
	defer in.Close()

	tmp := s.TempPath(path)
	out, err := os.Create(tmp)
	if err != nil {
		s.logf(slog.LevelWarn, "%v", fmt.Errorf("failed to open temporary file '%s': %w", tmp, err))
		return Result{Errors: ErrTempFileOpen}
	}

	res := s.Strip(in, out)
	if err := out.Close(); err != nil {
		res.Errors |= ErrTempFileOpen
		s.logf(slog.LevelWarn, "%v", fmt.Errorf("failed to close temporary file '%s': %w", tmp, err))
	}
	if !res.Errors.OK() {
		s.logf(slog.LevelWarn, "an error occurred while processing source file %s: %s", path, res.Errors)
		return res
	}

	if s.check != nil {
		if err := s.check(tmp); err != nil {
			res.Errors |= ErrOutputSyntax
			s.logf(slog.LevelWarn, "rewritten copy %s of %s failed verification: %v", tmp, path, err)
			return res
		}
	}
	s.logf(slog.LevelInfo, "successfully processed source file %s", path)

	if !s.flags.Has(FlagOverwriteFile) {
		s.logf(slog.LevelInfo, "processed version is copied to %s", tmp)
		return res
	}
	res.Errors |= s.overwrite(path, tmp)
	return res
}

// overwrite copies tmp over path and deletes tmp.
func (s *Stripper) overwrite(path, tmp string) ErrorMask {
	mask := NoErrors
	if err := copyFile(tmp, path); err != nil {
		mask |= ErrOverwrite
		s.logf(slog.LevelWarn, "%v", fmt.Errorf("failed to overwrite '%s' with '%s': %w", path, tmp, err))
	} else {
		s.logf(slog.LevelInfo, "overwrote source file %s", path)
	}

	if err := os.Remove(tmp); err != nil {
		mask |= ErrTempFileDelete
		s.logf(slog.LevelWarn, "%v", fmt.Errorf("failed to delete temporary file '%s': %w", tmp, err))
	} else {
		s.logf(slog.LevelInfo, "successfully deleted temporary file %s", tmp)
	}
	return mask
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(dst); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(dst, data, mode)
}

// Summary aggregates the results of a batch.
type Summary struct {
	Errors    ErrorMask
	Processed int
	Failed    int
	Functions []string // every function name seen, across files
}

// ProcessFiles processes paths one after the other and returns the
// combined error mask.
func (s *Stripper) ProcessFiles(paths []string) ErrorMask {
	return s.Batch(paths).Errors
}

// Batch processes paths one after the other. Duplicate paths are
// processed once. Unless the continue-on-error flag is set, the batch
// stops at the first file that fails.
func (s *Stripper) Batch(paths []string) Summary {
	var sum Summary
	paths = uniquePaths(paths)
	total := len(paths)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			sum.Errors |= ErrSourceFileOpen
			s.logf(slog.LevelWarn, "%v", fmt.Errorf("could not open file '%s': %w", path, err))
			if !s.flags.Has(FlagContinueOnError) {
				return sum
			}
			continue
		}

		res := s.processFile(path)
		sum.Processed++
		sum.Errors |= res.Errors
		sum.Functions = append(sum.Functions, res.Functions...)
		if !res.Errors.OK() {
			sum.Failed++
			sum.Errors |= ErrSingleFileProcess
			s.logf(slog.LevelWarn, "%d / %d file processed with failure: %s", sum.Processed, total, path)
			if !s.flags.Has(FlagContinueOnError) {
				return sum
			}
			continue
		}
		s.logf(slog.LevelInfo, "%d / %d file processed successfully", sum.Processed, total)
	}
	return sum
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
