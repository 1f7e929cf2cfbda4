package md5verify

// Verdict is the consistency flag for one run. It starts out consistent and
// only ever moves to inconsistent.
type Verdict struct {
	inconsistent bool
}

// Fail marks the run inconsistent.
func (v *Verdict) Fail() {
	v.inconsistent = true
}

// Consistent reports whether no inconsistency has been seen yet.
func (v *Verdict) Consistent() bool {
	return !v.inconsistent
}

// Stats counts what a run did.
type Stats struct {
	Directories      int
	FilesHashed      int
	FilesAdded       int
	FilesMissing     int
	Mismatches       int
	ManifestsWritten int
	ManifestsRemoved int
	Errors           int
}

// add folds the counters of one directory into s.
func (s *Stats) add(dr *DirResult) {
	s.Directories++
	s.FilesHashed += dr.Hashed
	s.FilesAdded += len(dr.Added)
	s.FilesMissing += len(dr.Missing)
	s.Mismatches += len(dr.Mismatched)
	s.Errors += len(dr.Errors)
	switch dr.Write {
	case WriteWritten:
		s.ManifestsWritten++
	case WriteRemoved:
		s.ManifestsRemoved++
	}
}
