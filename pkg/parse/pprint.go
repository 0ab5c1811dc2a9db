package parse

import (
	"bytes"
	"fmt"
	"reflect"
)

// PprintAST renders a tree for debugging and tests.
func PprintAST(n Node) string {
	var b bytes.Buffer
	pprintAST(&b, "", toAST(n))
	return b.String()
}

// An intermediate representation for nodes, keeping information relevant in
// the AST.
type ast struct {
	name   string
	fields []*astField
}

type astField struct {
	name   string
	scalar interface{}
	node   *ast
}

func toAST(n Node) *ast {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil
	}

	nVal := reflect.ValueOf(n).Elem()
	nTyp := nVal.Type()
	a := &ast{name: nTyp.Name()}

	for i := 0; i < nVal.NumField(); i++ {
		if nTyp.Field(i).PkgPath != "" {
			// Skip unexported fields
			continue
		}

		f := &astField{name: nTyp.Field(i).Name}
		field := nVal.Field(i).Interface()
		if child, ok := field.(Node); ok {
			f.node = toAST(child)
		} else {
			f.scalar = field
		}
		a.fields = append(a.fields, f)
	}
	return a
}

func pprintAST(buf *bytes.Buffer, indent string, a *ast) {
	if a == nil {
		buf.WriteString("nil")
		return
	}

	buf.WriteString(a.name)

	indent1 := indent + "  "
	for _, f := range a.fields {
		buf.WriteString("\n" + indent1 + "." + f.name + " = ")
		switch scalar := f.scalar.(type) {
		case nil:
			if f.node == nil {
				buf.WriteString("nil")
			} else {
				pprintAST(buf, indent1, f.node)
			}
		case string:
			fmt.Fprintf(buf, "%q", scalar)
		case []string:
			fmt.Fprintf(buf, "%q", scalar)
		default:
			fmt.Fprint(buf, scalar)
		}
	}
}
