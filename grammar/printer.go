package grammar

import (
	"fmt"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (p *Program) String() string {
	var b strings.Builder
	for _, m := range p.Modules {
		b.WriteString(m.StringWithIndent(0))
	}
	return b.String()
}

func (c *Comment) String() string {
	return c.Text
}

func (d *DocComment) String() string {
	return d.Text
}

func (m *Module) StringWithIndent(level int) string {
	var b strings.Builder
	if m.Doc != nil {
		b.WriteString(indent(level) + m.Doc.String() + "\n")
	}
	b.WriteString(fmt.Sprintf("%smodule %s {\n", indent(level), m.Name))
	for _, f := range m.Functions {
		b.WriteString(f.StringWithIndent(level + 1))
	}
	b.WriteString(indent(level) + "}\n")
	return b.String()
}

func (f *Function) StringWithIndent(level int) string {
	var b strings.Builder
	if f.Doc != nil {
		b.WriteString(indent(level) + f.Doc.String() + "\n")
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	b.WriteString(fmt.Sprintf("%sfn %s(%s) {\n", indent(level), f.Name, strings.Join(params, ", ")))
	for _, blk := range f.Blocks {
		b.WriteString(blk.StringWithIndent(level + 1))
	}
	b.WriteString(indent(level) + "}\n")
	return b.String()
}

func (p *Param) String() string {
	return fmt.Sprintf("%%%d: %s", p.ID, p.Type)
}

func (blk *Block) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%sblock %d:\n", indent(level), blk.ID))
	for _, inst := range blk.Insts {
		b.WriteString(indent(level+1) + inst.String() + "\n")
	}
	return b.String()
}

func (o Operand) String() string {
	if o.Ref != nil {
		return fmt.Sprintf("%%%d", *o.Ref)
	}
	return fmt.Sprintf("%d", *o.Literal)
}

func operandList(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

func (i *Instruction) String() string {
	switch {
	case i.Comment != nil:
		return i.Comment.String()
	case i.Assign != nil:
		return fmt.Sprintf("%%%d = %s", i.Assign.Dst, i.Assign.RHS.String())
	case i.Store != nil:
		s := i.Store
		return fmt.Sprintf("store %s, %s%s", s.Addr, s.Val, qualifiers(s.Space, s.Size))
	case i.Call != nil:
		return i.Call.String()
	case i.Sync != nil:
		return "syncthreads"
	case i.Branch != nil:
		return fmt.Sprintf("br %d", i.Branch.Target)
	case i.CondBr != nil:
		c := i.CondBr
		return fmt.Sprintf("condbr %s, %d, %d", c.Cond, c.True, c.False)
	case i.Ret != nil:
		if i.Ret.Value != nil {
			return fmt.Sprintf("ret %s", *i.Ret.Value)
		}
		return "ret"
	case i.Unreach != nil:
		return "unreachable"
	default:
		return ""
	}
}

func qualifiers(space string, size int) string {
	var b strings.Builder
	if space != "" {
		b.WriteString(fmt.Sprintf(" space(%s)", space))
	}
	if size != 0 {
		b.WriteString(fmt.Sprintf(" size(%d)", size))
	}
	return b.String()
}

func (r *RHS) String() string {
	switch {
	case r.Binary != nil:
		b := r.Binary
		return fmt.Sprintf("%s %s, %s", b.Op, b.Left, b.Right)
	case r.Cast != nil:
		return fmt.Sprintf("cast %s", r.Cast.Src)
	case r.Alloca != nil:
		a := r.Alloca
		agg := ""
		if a.Aggregate {
			agg = " aggregate"
		}
		return fmt.Sprintf("alloca%s%s", agg, qualifiers("", a.Size))
	case r.Load != nil:
		l := r.Load
		ptr := ""
		if l.Ptr {
			ptr = " ptr"
		}
		return fmt.Sprintf("load %s%s%s", l.Addr, qualifiers(l.Space, l.Size), ptr)
	case r.GEP != nil:
		g := r.GEP
		return fmt.Sprintf("gep %s, %s%s", g.Base, operandList(g.Indices), qualifiers(g.Space, g.Size))
	case r.Select != nil:
		s := r.Select
		return fmt.Sprintf("select %s, %s, %s", s.Cond, s.True, s.False)
	case r.Phi != nil:
		return fmt.Sprintf("phi [%s]", operandList(r.Phi.Incoming))
	case r.Cmp != nil:
		c := r.Cmp
		return fmt.Sprintf("%s %s, %s", c.Pred, c.Left, c.Right)
	case r.Extract != nil:
		return fmt.Sprintf("extractvalue %s", r.Extract.Agg)
	case r.SpecReg != nil:
		return r.SpecReg.Reg
	case r.Call != nil:
		return r.Call.String()
	default:
		return ""
	}
}

func (c *CallRHS) String() string {
	asm := ""
	if c.InlineAsm {
		asm = " asm"
	}
	return fmt.Sprintf("call%s @%s(%s)", asm, c.Callee, operandList(c.Args))
}

func (c *CallInst) String() string {
	asm := ""
	if c.InlineAsm {
		asm = " asm"
	}
	return fmt.Sprintf("call%s @%s(%s)", asm, c.Callee, operandList(c.Args))
}
