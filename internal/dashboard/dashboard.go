package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ComponentType is the kind of widget
type ComponentType string

const (
	BarChart     ComponentType = "bar_chart"
	LineChart    ComponentType = "line_chart"
	PieChart     ComponentType = "pie_chart"
	KPI          ComponentType = "kpi"
	Table        ComponentType = "table"
	ScatterChart ComponentType = "scatter_chart"
)

// GridColumns is the width of the layout grid
const GridColumns = 12

var ErrComponentNotFound = errors.New("component not found")

// Valid reports whether t is a known component type
func (t ComponentType) Valid() bool {
	switch t {
	case BarChart, LineChart, PieChart, KPI, Table, ScatterChart:
		return true
	}
	return false
}

// IsChart reports whether t is one of the axis-based chart types that a
// modify command targets first.
func (t ComponentType) IsChart() bool {
	return t == BarChart || t == LineChart || t == PieChart
}

type Dashboard struct {
	ID         string      `json:"id"`
	DatasetID  string      `json:"dataset_id"`
	Title      string      `json:"title"`
	Components []Component `json:"components"`
	Layout     Layout      `json:"layout"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type Layout struct {
	Rows int        `json:"rows"`
	Cols int        `json:"cols"`
	Grid []Position `json:"grid"`
}

type Component struct {
	ID       string        `json:"id"`
	Type     ComponentType `json:"type"`
	Title    string        `json:"title"`
	Config   Config        `json:"config"`
	Position Position      `json:"position"`
}

type Config struct {
	XAxis       string           `json:"x_axis,omitempty"`
	YAxis       string           `json:"y_axis,omitempty"`
	Aggregation string           `json:"aggregation,omitempty"`
	Value       any              `json:"value,omitempty"`
	Columns     []string         `json:"columns,omitempty"`
	PageSize    int              `json:"page_size,omitempty"`
	Data        []map[string]any `json:"data,omitempty"`
}

type Position struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Patch is a partial component update. Nil fields are left alone.
type Patch struct {
	Type   *ComponentType `json:"type,omitempty"`
	Title  *string        `json:"title,omitempty"`
	Config *ConfigPatch   `json:"config,omitempty"`
}

type ConfigPatch struct {
	XAxis    *string
	YAxis    *string
	Value    any
	HasValue bool
}

func (p ConfigPatch) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if p.XAxis != nil {
		m["x_axis"] = *p.XAxis
	}
	if p.YAxis != nil {
		m["y_axis"] = *p.YAxis
	}
	if p.HasValue {
		m["value"] = p.Value
	}
	return json.Marshal(m)
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	if p.Type != nil || p.Title != nil {
		return false
	}
	if p.Config == nil {
		return true
	}
	return p.Config.XAxis == nil && p.Config.YAxis == nil && !p.Config.HasValue
}

// New creates an empty dashboard for a dataset
func New(id, datasetID, title string) *Dashboard {
	now := time.Now().UTC()
	return &Dashboard{
		ID:        id,
		DatasetID: datasetID,
		Title:     title,
		Layout:    Layout{Cols: GridColumns},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Find returns the component with the given id
func (d *Dashboard) Find(id string) (*Component, bool) {
	for i := range d.Components {
		if d.Components[i].ID == id {
			return &d.Components[i], true
		}
	}
	return nil, false
}

// Add appends components and recomputes the grid
func (d *Dashboard) Add(components ...Component) error {
	for _, c := range components {
		if _, exists := d.Find(c.ID); exists {
			return fmt.Errorf("duplicate component id %q", c.ID)
		}
		d.Components = append(d.Components, c)
	}
	d.relayout()
	return nil
}

// Update applies a patch to one component. Axis or type changes drop the
// materialized data so it can be recomputed.
func (d *Dashboard) Update(id string, p Patch) error {
	c, ok := d.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, id)
	}

	stale := false
	if p.Type != nil && *p.Type != c.Type {
		c.Type = *p.Type
		stale = true
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Config != nil {
		if p.Config.XAxis != nil {
			c.Config.XAxis = *p.Config.XAxis
			stale = true
		}
		if p.Config.YAxis != nil {
			c.Config.YAxis = *p.Config.YAxis
			stale = true
		}
		if p.Config.HasValue {
			c.Config.Value = p.Config.Value
		}
	}
	if stale {
		c.Config.Data = nil
	}
	d.relayout()
	return nil
}

// Remove drops a component and its grid slot
func (d *Dashboard) Remove(id string) error {
	for i := range d.Components {
		if d.Components[i].ID == id {
			d.Components = append(d.Components[:i], d.Components[i+1:]...)
			d.relayout()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrComponentNotFound, id)
}

// Clone returns a deep copy so callers can hand out snapshots safely
func (d *Dashboard) Clone() *Dashboard {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Components = make([]Component, len(d.Components))
	for i, c := range d.Components {
		cp.Components[i] = c.clone()
	}
	cp.Layout.Grid = append([]Position(nil), d.Layout.Grid...)
	return &cp
}

func (c Component) clone() Component {
	cp := c
	cp.Config.Columns = append([]string(nil), c.Config.Columns...)
	if c.Config.Data != nil {
		cp.Config.Data = make([]map[string]any, len(c.Config.Data))
		for i, rec := range c.Config.Data {
			m := make(map[string]any, len(rec))
			for k, v := range rec {
				m[k] = v
			}
			cp.Config.Data[i] = m
		}
	}
	return cp
}

// RowCount is the number of grid rows occupied by the components
func (d *Dashboard) RowCount() int {
	rows := 0
	for _, c := range d.Components {
		if end := c.Position.Row + c.Position.Height; end > rows {
			rows = end
		}
	}
	return rows
}

func (d *Dashboard) relayout() {
	d.Layout.Cols = GridColumns
	d.Layout.Grid = make([]Position, len(d.Components))
	for i, c := range d.Components {
		d.Layout.Grid[i] = c.Position
	}
	d.Layout.Rows = d.RowCount()
	d.UpdatedAt = time.Now().UTC()
}
