package fields

import "github.com/san-kum/flowsim/internal/dynamo"

type Rossler struct{ A, B, C float64 }

func NewRossler() *Rossler  { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) Dim() int { return 3 }

func (r *Rossler) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, r.at) }

func (r *Rossler) at(d, s []float64, _ float64) {
	d[0] = -s[1] - s[2]
	d[1] = s[0] + r.A*s[1]
	d[2] = r.B + s[2]*(s[0]-r.C)
}

func (r *Rossler) Params() map[string]float64 {
	return map[string]float64{"a": r.A, "b": r.B, "c": r.C}
}

func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.A = v
	case "b":
		r.B = v
	case "c":
		r.C = v
	default:
		return unknownParam(n)
	}
	return nil
}
