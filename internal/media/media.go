// Package media decides which files from the media directory are attached
// to an outgoing message.
package media

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const bytesPerMB = 1024 * 1024

// Reason explains an admission decision.
type Reason string

const (
	Accepted             Reason = "accepted"
	UnsupportedExtension Reason = "unsupported-extension"
	Unreadable           Reason = "unreadable"
	Empty                Reason = "empty"
	Oversized            Reason = "oversized"
	TotalLimit           Reason = "total-limit"
	Halted               Reason = "halted"
)

// Policy bounds what gets attached.
type Policy struct {
	// Extensions are lower-case and include the leading dot.
	Extensions []string
	MaxFileMB  float64
	MaxTotalMB float64
}

// Candidate is a file considered for attachment.
type Candidate struct {
	Path string
	Name string
	Ext  string
	Size int64
}

// SizeMB returns the size in mebibytes.
func (c Candidate) SizeMB() float64 {
	return float64(c.Size) / bytesPerMB
}

// Decision records what happened to one candidate.
type Decision struct {
	Candidate
	Reason Reason
}

// Result is the ordered list of decisions for a directory scan.
type Result struct {
	Decisions []Decision
	TotalMB   float64
}

// Accepted returns the admitted candidates in scan order.
func (r Result) Accepted() []Candidate {
	var out []Candidate
	for _, d := range r.Decisions {
		if d.Reason == Accepted {
			out = append(out, d.Candidate)
		}
	}
	return out
}

// Discover scans dir in file-name order and admits files under p.
// Subdirectories and dot-files are ignored. The extension check happens
// before any size check. The first file that would push the running total
// over MaxTotalMB is rejected with TotalLimit and every file after it is
// recorded as Halted without being examined. A missing or unreadable
// directory yields an empty result.
func Discover(dir string, p Policy, logger *slog.Logger) Result {
	var res Result

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("media directory unavailable, sending without attachments", "dir", dir, "error", err)
		return res
	}

	allowed := make(map[string]struct{}, len(p.Extensions))
	for _, ext := range p.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	halted := false
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}

		c := Candidate{
			Path: filepath.Join(dir, name),
			Name: name,
			Ext:  strings.ToLower(filepath.Ext(name)),
		}

		if halted {
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: Halted})
			continue
		}

		if _, ok := allowed[c.Ext]; !ok {
			logger.Debug("skipping unsupported file type", "file", name)
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: UnsupportedExtension})
			continue
		}

		info, err := statReadable(c.Path)
		if err != nil {
			logger.Warn("cannot read media file", "file", name, "error", err)
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: Unreadable})
			continue
		}
		if info.IsDir() {
			continue
		}
		c.Size = info.Size()

		switch {
		case c.Size == 0:
			logger.Warn("skipping empty media file", "file", name)
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: Empty})
		case c.SizeMB() > p.MaxFileMB:
			logger.Warn("media file too large, skipping",
				"file", name,
				"size_mb", round(c.SizeMB()),
				"limit_mb", p.MaxFileMB,
			)
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: Oversized})
		case res.TotalMB+c.SizeMB() > p.MaxTotalMB:
			logger.Warn("total attachment size limit reached, stopping",
				"file", name,
				"total_mb", round(res.TotalMB),
				"limit_mb", p.MaxTotalMB,
			)
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: TotalLimit})
			halted = true
		default:
			res.TotalMB += c.SizeMB()
			res.Decisions = append(res.Decisions, Decision{Candidate: c, Reason: Accepted})
			logger.Debug("media file admitted", "file", name, "size_mb", round(c.SizeMB()))
		}
	}

	return res
}

func round(mb float64) float64 {
	return float64(int64(mb*100+0.5)) / 100
}

// statReadable opens path to prove it can be read and returns its info.
func statReadable(path string) (os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}
