package runtime

import "testing"

func TestDrawings_TrackAndDelete(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	l := c.NewLine(Point{Time: 1, Price: 10}, Point{Time: 2, Price: 11})
	b := c.NewBox(Point{Time: 1, Price: 12}, Point{Time: 2, Price: 9})
	lb := c.NewLabel(Point{Time: 2, Price: 11}, "peak")
	pl := c.NewPolyline(Point{Time: 1, Price: 10}, Point{Time: 2, Price: 11})

	if l.ID() == "" || l.ID() == b.ID() || lb.ID() == pl.ID() {
		t.Fatal("drawings need distinct non-empty ids")
	}
	ds := c.Drawings()
	if len(ds) != 4 {
		t.Fatalf("drawings = %d, want 4", len(ds))
	}
	kinds := []DrawingKind{DrawingLine, DrawingBox, DrawingLabel, DrawingPolyline}
	for i, d := range ds {
		if d.Kind() != kinds[i] {
			t.Errorf("kind[%d] = %s, want %s", i, d.Kind(), kinds[i])
		}
	}

	if !c.DeleteDrawing(b.ID()) {
		t.Fatal("delete should find the box")
	}
	if c.DeleteDrawing(b.ID()) {
		t.Fatal("second delete should miss")
	}
	if len(c.Drawings()) != 3 {
		t.Fatalf("drawings after delete = %d, want 3", len(c.Drawings()))
	}
}

func TestDrawings_CapEvictsOldestFirst(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}), WithDrawingCap(3))
	first := c.NewLabel(Point{}, "0")
	c.NewLabel(Point{}, "1")
	c.NewLabel(Point{}, "2")
	c.NewLabel(Point{}, "3") // evicts "0"

	ds := c.Drawings()
	if len(ds) != 3 {
		t.Fatalf("drawings = %d, want cap 3", len(ds))
	}
	for _, d := range ds {
		if d.ID() == first.ID() {
			t.Fatal("oldest drawing should have been evicted")
		}
	}
	if ds[0].(*Label).Text != "1" || ds[2].(*Label).Text != "3" {
		t.Fatalf("unexpected order after eviction: %q .. %q", ds[0].(*Label).Text, ds[2].(*Label).Text)
	}
}

func TestDrawings_PolylineCopiesPoints(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	pts := []Point{{Time: 1, Price: 10}, {Time: 2, Price: 11}}
	pl := c.NewPolyline(pts...)
	pts[0].Price = 999
	if pl.Points[0].Price != 10 {
		t.Fatal("polyline must copy its input points")
	}
}
