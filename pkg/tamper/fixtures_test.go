package tamper_test

import (
	"fmt"

	"github.com/funvibe/tamper/pkg/tamper"
)

// Dummy mirrors a typical target: unexported state, a few exported members,
// and package-level statics published through an exposure table.
type Dummy struct {
	test1 float32
	Test2 float32
	prop2 float32
	speed float64
	calls []string
}

func newDummy() *Dummy {
	return &Dummy{test1: 5, Test2: 15, prop2: 35, speed: 1.5}
}

func (d *Dummy) Speed() float64     { return d.speed }
func (d *Dummy) SetSpeed(v float64) { d.speed = v }
func (d *Dummy) Calls() []string    { return d.calls }

func (d *Dummy) propTest2() float32     { return d.prop2 }
func (d *Dummy) setPropTest2(v float32) { d.prop2 = v }
func (d *Dummy) readOnly() int          { return 7 }

func (d *Dummy) instanceMethod() { d.calls = append(d.calls, "instanceMethod()") }

func (d *Dummy) instanceMethod2(ex1, ex2 int) {
	d.calls = append(d.calls, fmt.Sprintf("instanceMethod2(%d,%d)", ex1, ex2))
}

func (d *Dummy) Sum(a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14, a15 int) float32 {
	return float32(a1 + a2 + a3 + a4 + a5 + a6 + a7 + a8 + a9 + a10 + a11 + a12 + a13 + a14 + a15)
}

// sum clashes with Sum by case; only the signature tells them apart.
func (d *Dummy) sum(a, b int) int { return a + b }

var (
	staticTest1 float32 = 45
	StaticTest3 float32 = 85
	staticProp2 float32 = 75
	staticLog   []string
)

func staticPropTest2() float32     { return staticProp2 }
func setStaticPropTest2(v float32) { staticProp2 = v }
func staticConst() float32         { return 95 }

func staticMethod() { staticLog = append(staticLog, "staticMethod()") }

func staticSum(a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14, a15 int) float32 {
	return float32(a1 + a2 + a3 + a4 + a5 + a6 + a7 + a8 + a9 + a10 + a11 + a12 + a13 + a14 + a15)
}

// Point is a value entity.
type Point struct {
	x, y int
}

func (p Point) Norm() int { return abs(p.x) + abs(p.y) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func init() {
	tamper.Expose[Dummy](
		tamper.Var("staticTest1", &staticTest1),
		tamper.Var("StaticTest3", &StaticTest3),
		tamper.StaticProp("staticPropTest2", staticPropTest2, setStaticPropTest2),
		tamper.StaticProp("staticConst", staticConst, nil),
		tamper.Func("staticMethod", staticMethod),
		tamper.Func("staticSum", staticSum),
		tamper.Method("instanceMethod", (*Dummy).instanceMethod),
		tamper.Method("instanceMethod2", (*Dummy).instanceMethod2),
		tamper.Method("sum", (*Dummy).sum),
		tamper.Prop("propTest2", (*Dummy).propTest2, (*Dummy).setPropTest2),
		tamper.Prop("readOnly", (*Dummy).readOnly, nil),
	)
}
