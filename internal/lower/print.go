package lower

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable plan.
func Dump(w io.Writer, p *Plan) error {
	if w == nil || p == nil {
		return nil
	}
	return dump(w, p, 0)
}

func dump(w io.Writer, p *Plan, depth int) error {
	indent := strings.Repeat("  ", depth)
	length := "dynamic"
	if p.Length >= 0 {
		length = fmt.Sprint(p.Length)
	}
	if _, err := fmt.Fprintf(w, "%splan %s strategy=%s elem=%s length=%s\n", indent, p.Target, p.Strategy, p.Elem, length); err != nil {
		return err
	}
	return dumpSteps(w, p.Steps, depth+1)
}

func dumpSteps(w io.Writer, steps []Step, depth int) error {
	indent := strings.Repeat("  ", depth)
	for i := range steps {
		st := &steps[i]
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s%s", indent, st.Op)
		switch st.Op {
		case OpNewArray, OpStackBuffer, OpHeapBuffer:
			fmt.Fprintf(&sb, " %s[%d]", st.Type, st.Count)
		case OpStoreIndex:
			fmt.Fprintf(&sb, " [%d] <- #%d", st.Count, st.Index)
		case OpNewObject:
			fmt.Fprintf(&sb, " %s", st.Type)
			if st.Method != "" {
				fmt.Fprintf(&sb, " %s", st.Method)
			}
		case OpCallAdd:
			fmt.Fprintf(&sb, " %s <- #%d", st.Method, st.Index)
		case OpSpread:
			fmt.Fprintf(&sb, " #%d %s (%s)", st.Index, st.Type, st.Iter)
		case OpToArray, OpToSpan:
			fmt.Fprintf(&sb, " %s", st.Type)
		case OpCallBuilder:
			fmt.Fprintf(&sb, " %s.%s", st.Type, st.Method)
		}
		if st.Conv != "" && st.Conv != "identity" {
			fmt.Fprintf(&sb, " conv=%s", st.Conv)
		}
		if st.Text != "" {
			fmt.Fprintf(&sb, " ; %s", st.Text)
		}
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
		if st.Nested != nil {
			if err := dump(w, st.Nested, depth+1); err != nil {
				return err
			}
		}
		if len(st.Body) > 0 {
			if err := dumpSteps(w, st.Body, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
