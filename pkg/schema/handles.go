package schema

import (
	"fmt"
	"strings"
)

// Named output handles. Single-output nodes use the empty handle.
const (
	HandleDefault  = "default"
	HandleLoopBody = "body"
	HandleLoopDone = "done"

	caseHandlePrefix = "case_"
)

// CaseHandleID builds the stable handle id for a switch case created at the
// given ordinal position. Existing cases keep their handle ids when other
// cases are removed, so handle ids are stable but not necessarily dense.
func CaseHandleID(index int) string {
	return fmt.Sprintf("%s%d", caseHandlePrefix, index)
}

// IsCaseHandle reports whether a handle id names a switch case.
func IsCaseHandle(handle string) bool {
	return strings.HasPrefix(handle, caseHandlePrefix)
}

// NodeHandles returns the set of source handles a node currently exposes.
// Switch nodes expose one handle per case plus "default"; loop nodes expose
// "body" and "done"; every other type exposes the single empty handle. Notes
// expose no handles at all (they never carry edges).
func NodeHandles(n *Node) (map[string]bool, error) {
	switch n.Type {
	case NodeTypeSwitch:
		cfg, err := DecodeConfig(n)
		if err != nil {
			return nil, err
		}
		sw := cfg.(*SwitchConfig)
		handles := make(map[string]bool, len(sw.Cases)+1)
		for _, c := range sw.Cases {
			handles[c.HandleID] = true
		}
		handles[HandleDefault] = true
		return handles, nil

	case NodeTypeLoop:
		return map[string]bool{HandleLoopBody: true, HandleLoopDone: true}, nil

	case NodeTypeNote:
		return map[string]bool{}, nil

	default:
		return map[string]bool{"": true}, nil
	}
}
