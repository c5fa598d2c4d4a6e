package layout

// VectorKind 区分矢量图形。
type VectorKind int

const (
	VectorRect VectorKind = iota + 1
	VectorLine
	VectorPolyline
	VectorEllipse
)

func (k VectorKind) String() string {
	switch k {
	case VectorRect:
		return "rect"
	case VectorLine:
		return "line"
	case VectorPolyline:
		return "polyline"
	case VectorEllipse:
		return "ellipse"
	}
	return "unknown"
}

// Vector 是画布上的一个矢量图形，坐标单位为 pt。
type Vector struct {
	Kind VectorKind `json:"kind"`

	// rect / ellipse
	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
	W  float64 `json:"w,omitempty"`
	H  float64 `json:"h,omitempty"`
	R  float64 `json:"r,omitempty"`
	R1 float64 `json:"r1,omitempty"`
	R2 float64 `json:"r2,omitempty"`

	// line
	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	// polyline
	Points []Point `json:"points,omitempty"`
	Closed bool    `json:"closed,omitempty"`

	LineWidth float64   `json:"lineWidth,omitempty"`
	LineColor string    `json:"lineColor,omitempty"`
	Color     string    `json:"color,omitempty"`
	Dash      []float64 `json:"dash,omitempty"`
	Opacity   float64   `json:"opacity,omitempty"`

	origin *Vector
}

// Clone 返回不带快照的深拷贝。
func (v *Vector) Clone() *Vector {
	c := *v
	c.Points = append([]Point(nil), v.Points...)
	c.Dash = append([]float64(nil), v.Dash...)
	c.origin = nil
	if v.origin != nil {
		c.origin = v.origin.Clone()
	}
	return &c
}

func (v *Vector) offset(dx, dy float64) {
	switch v.Kind {
	case VectorRect, VectorEllipse:
		v.X += dx
		v.Y += dy
	case VectorLine:
		v.X1 += dx
		v.X2 += dx
		v.Y1 += dy
		v.Y2 += dy
	case VectorPolyline:
		for i := range v.Points {
			v.Points[i].X += dx
			v.Points[i].Y += dy
		}
	}
}

func (v *Vector) snapshot() {
	o := *v
	o.Points = append([]Point(nil), v.Points...)
	o.origin = nil
	v.origin = &o
}

func (v *Vector) restore() {
	if v.origin == nil {
		return
	}
	o := v.origin
	v.X, v.Y, v.X1, v.Y1, v.X2, v.Y2 = o.X, o.Y, o.X1, o.Y1, o.X2, o.Y2
	v.Points = append(v.Points[:0], o.Points...)
}

// bottom 返回图形在 y 方向的最大值，用于计算画布高度。
func (v *Vector) bottom() float64 {
	switch v.Kind {
	case VectorRect:
		return v.Y + v.H
	case VectorEllipse:
		return v.Y + v.R2
	case VectorLine:
		return max(v.Y1, v.Y2)
	case VectorPolyline:
		var b float64
		for _, p := range v.Points {
			b = max(b, p.Y)
		}
		return b
	}
	return 0
}

// right 返回图形在 x 方向的最大值。
func (v *Vector) right() float64 {
	switch v.Kind {
	case VectorRect:
		return v.X + v.W
	case VectorEllipse:
		return v.X + v.R1
	case VectorLine:
		return max(v.X1, v.X2)
	case VectorPolyline:
		var r float64
		for _, p := range v.Points {
			r = max(r, p.X)
		}
		return r
	}
	return 0
}

// Extent 返回图形的右下边界（宽、高）。
func (v *Vector) Extent() (float64, float64) { return v.right(), v.bottom() }
