package keypkg

import "elementstore/internal/graphstoreerr"

func iteratorConfigError(format string, args ...interface{}) error {
	return graphstoreerr.IteratorConfig(format, args...)
}
