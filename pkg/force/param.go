// pkg/force/param.go
package force

// NodeFunc computes a per-node value from the node, its position in the bound
// slice and the slice itself.
type NodeFunc func(n *Node, i int, nodes []*Node) float64

// Constant wraps v into a NodeFunc that ignores its arguments.
func Constant(v float64) NodeFunc {
	return func(*Node, int, []*Node) float64 {
		return v
	}
}

// Param is either a constant or a NodeFunc. The zero Param is unset.
type Param struct {
	value  float64
	fn     NodeFunc
	isFunc bool
	set    bool
}

// ConstParam returns a constant parameter.
func ConstParam(v float64) Param {
	return Param{value: v, set: true}
}

// FuncParam returns a per-node parameter. A nil fn yields the unset Param.
func FuncParam(fn NodeFunc) Param {
	if fn == nil {
		return Param{}
	}
	return Param{fn: fn, isFunc: true, set: true}
}

// IsZero reports whether the parameter was never set.
func (p Param) IsZero() bool {
	return !p.set
}

// IsConst reports whether the parameter is a constant.
func (p Param) IsConst() bool {
	return !p.isFunc
}

// Value returns the constant value. It is zero for function parameters.
func (p Param) Value() float64 {
	return p.value
}

// Eval resolves the parameter for one node.
func (p Param) Eval(n *Node, i int, nodes []*Node) float64 {
	if p.isFunc {
		return p.fn(n, i, nodes)
	}
	return p.value
}

// Func returns the parameter as a NodeFunc, wrapping constants.
func (p Param) Func() NodeFunc {
	if p.isFunc {
		return p.fn
	}
	return Constant(p.value)
}
