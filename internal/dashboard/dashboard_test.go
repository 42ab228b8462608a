package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dashboard {
	d := New("d1", "ds1", "Sales")
	_ = d.Add(
		Component{ID: "c1", Type: KPI, Title: "Total Revenue", Config: Config{YAxis: "revenue"}, Position: Position{Row: 0, Col: 0, Width: 4, Height: 1}},
		Component{ID: "c2", Type: BarChart, Title: "Revenue by Region", Config: Config{XAxis: "region", YAxis: "revenue", Data: []map[string]any{{"region": "north", "revenue": 10.0}}}, Position: Position{Row: 1, Col: 0, Width: 6, Height: 2}},
	)
	return d
}

func TestAddRecomputesGrid(t *testing.T) {
	d := sample()
	require.Len(t, d.Layout.Grid, 2)
	assert.Equal(t, 3, d.Layout.Rows)
	assert.Equal(t, GridColumns, d.Layout.Cols)

	err := d.Add(Component{ID: "c1"})
	assert.Error(t, err, "duplicate ids are rejected")
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name      string
		patch     Patch
		check     func(t *testing.T, c *Component)
		dataReset bool
	}{
		{
			name:  "title only keeps data",
			patch: Patch{Title: ptr("Sales by Region")},
			check: func(t *testing.T, c *Component) {
				assert.Equal(t, "Sales by Region", c.Title)
			},
		},
		{
			name:      "type change drops data",
			patch:     Patch{Type: ptr(LineChart)},
			dataReset: true,
			check: func(t *testing.T, c *Component) {
				assert.Equal(t, LineChart, c.Type)
			},
		},
		{
			name:      "axis change drops data",
			patch:     Patch{Config: &ConfigPatch{XAxis: ptr("product")}},
			dataReset: true,
			check: func(t *testing.T, c *Component) {
				assert.Equal(t, "product", c.Config.XAxis)
				assert.Equal(t, "revenue", c.Config.YAxis)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sample()
			require.NoError(t, d.Update("c2", tt.patch))
			c, ok := d.Find("c2")
			require.True(t, ok)
			tt.check(t, c)
			if tt.dataReset {
				assert.Nil(t, c.Config.Data)
			} else {
				assert.Len(t, c.Config.Data, 1)
			}
		})
	}

	err := sample().Update("missing", Patch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestRemove(t *testing.T) {
	d := sample()
	require.NoError(t, d.Remove("c1"))
	assert.Len(t, d.Components, 1)
	assert.Len(t, d.Layout.Grid, 1)
	assert.Equal(t, d.Components[0].Position, d.Layout.Grid[0])

	assert.ErrorIs(t, d.Remove("c1"), ErrComponentNotFound)
}

func TestCloneIsDeep(t *testing.T) {
	d := sample()
	cp := d.Clone()

	cp.Components[1].Config.Data[0]["revenue"] = 99.0
	cp.Components[0].Title = "changed"
	require.NoError(t, cp.Remove("c1"))

	assert.Len(t, d.Components, 2)
	assert.Equal(t, "Total Revenue", d.Components[0].Title)
	assert.Equal(t, 10.0, d.Components[1].Config.Data[0]["revenue"])
}

func TestPatchJSON(t *testing.T) {
	p := Patch{Title: ptr("New"), Config: &ConfigPatch{Value: 0, HasValue: true}}
	assert.False(t, p.Empty())

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"New","config":{"value":0}}`, string(b))

	assert.True(t, Patch{Config: &ConfigPatch{}}.Empty())
}

func ptr[T any](v T) *T { return &v }
