// Package geo provides the planar geometry used by the hazard engine:
// a locally flat metric projection, route corridor buffering, and
// great-circle distance. Geographic-degree math is never used for
// buffering or distance comparisons; everything spatial happens in a
// meter-based frame anchored near the service region.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	domainerrors "airscout/internal/domain/errors"
)

// metersPerDegree is the length of one degree of latitude. Longitude degrees
// are scaled by cos(origin latitude). The projection only needs to be an
// exact self-inverse; absolute accuracy within a single metro area is well
// under the sub-meter round-trip tolerance.
const metersPerDegree = 111320.0

// arcStepRadians controls how finely round joins and end caps are sampled
// when buffering. π/8 gives 16 samples per full circle.
const arcStepRadians = math.Pi / 8

// Projection is a local equirectangular frame: geographic lon/lat to planar
// meters around a fixed origin. Project and Unproject are exact inverses.
type Projection struct {
	origin orb.Point
	cosLat float64
}

// NewProjection anchors a metric frame at the given geographic origin.
func NewProjection(origin orb.Point) *Projection {
	return &Projection{
		origin: origin,
		cosLat: math.Cos(origin[1] * math.Pi / 180),
	}
}

// Project converts a geographic point into frame meters.
func (p *Projection) Project(pt orb.Point) orb.Point {
	return orb.Point{
		(pt[0] - p.origin[0]) * metersPerDegree * p.cosLat,
		(pt[1] - p.origin[1]) * metersPerDegree,
	}
}

// Unproject converts frame meters back into a geographic point.
func (p *Projection) Unproject(pt orb.Point) orb.Point {
	return orb.Point{
		pt[0]/(metersPerDegree*p.cosLat) + p.origin[0],
		pt[1]/metersPerDegree + p.origin[1],
	}
}

// ProjectLine converts a geographic polyline into frame meters.
func (p *Projection) ProjectLine(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, pt := range line {
		out[i] = p.Project(pt)
	}

	return out
}

// Distance returns the great-circle distance between two geographic points
// in meters. Used for scoring and display, independent of any projection.
func Distance(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// LengthMeters returns the great-circle length of a geographic polyline.
func LengthMeters(route orb.LineString) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += Distance(route[i-1], route[i])
	}

	return total
}

// DistanceToRoute returns the minimum distance in meters from a geographic
// point to a geographic polyline, computed in the metric frame.
func DistanceToRoute(pt orb.Point, route orb.LineString) float64 {
	if len(route) == 0 {
		return math.Inf(1)
	}

	proj := NewProjection(route[0])
	p := proj.Project(pt)
	line := proj.ProjectLine(route)

	best := math.Inf(1)
	if len(line) == 1 {
		return planarDistance(p, line[0])
	}
	for i := 1; i < len(line); i++ {
		if d := pointSegmentDistance(p, line[i-1], line[i]); d < best {
			best = d
		}
	}

	return best
}

// BufferRoute builds the corridor polygon of the given half-width around an
// ordered polyline. The corridor is computed in the metric frame with round
// joins and semicircular end caps, then reprojected to geographic
// coordinates. Degenerate routes (two points, collinear points, repeated
// points) yield a valid non-empty polygon containing every route point.
func BufferRoute(route orb.LineString, meters float64) (orb.Polygon, error) {
	if meters <= 0 {
		return nil, domainerrors.ErrInvalidParameter.WrapMessage("buffer meters must be positive")
	}
	if len(route) < 2 {
		return nil, domainerrors.ErrInvalidRoute.WrapMessage("cannot buffer route")
	}

	proj := NewProjection(route[0])
	line := dedupe(proj.ProjectLine(route))

	var ring orb.Ring
	if len(line) == 1 {
		// All points coincide: the corridor collapses to a disc.
		ring = circleRing(line[0], meters)
	} else {
		ring = corridorRing(line, meters)
	}

	// Close and reproject.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	geoRing := make(orb.Ring, len(ring))
	for i, pt := range ring {
		geoRing[i] = proj.Unproject(pt)
	}

	poly := orb.Polygon{geoRing}
	if planar.Area(poly) == 0 {
		return nil, domainerrors.ErrInvalidParameter.WrapMessage("buffered route produced an empty polygon")
	}

	return poly, nil
}

// corridorRing walks the left offset of the polyline forward, caps the far
// end, walks the right offset backward, and caps the near end. Joints are
// rounded with arc samples so sharp turns cannot produce miter spikes.
func corridorRing(line orb.LineString, w float64) orb.Ring {
	var ring orb.Ring

	appendSide := func(pts orb.LineString) {
		for i := 1; i < len(pts); i++ {
			n := leftNormal(pts[i-1], pts[i])
			if i == 1 {
				ring = append(ring, offset(pts[0], n, w))
			} else {
				// Round join at the interior vertex: sweep from the previous
				// segment's normal to this one's, then land on the new offset.
				prev := leftNormal(pts[i-2], pts[i-1])
				ring = insertArc(ring, pts[i-1], prev, n, w)
				ring = append(ring, offset(pts[i-1], n, w))
			}
			ring = append(ring, offset(pts[i], n, w))
		}
	}

	appendSide(line)

	// Far end cap: sweep from the left normal through the heading to the
	// right normal around the last vertex.
	last := line[len(line)-1]
	endNormal := leftNormal(line[len(line)-2], last)
	ring = insertArc(ring, last, endNormal, orb.Point{-endNormal[0], -endNormal[1]}, w)

	appendSide(reverse(line))

	// Near end cap closes the loop back to the first left-offset point.
	first := line[0]
	startNormal := leftNormal(line[1], first)
	ring = insertArc(ring, first, startNormal, orb.Point{-startNormal[0], -startNormal[1]}, w)

	return ring
}

// insertArc appends intermediate points sweeping around center from the
// direction of fromN to the direction of toN, always taking the
// counterclockwise-to-clockwise path that bulges away from the polyline.
func insertArc(ring orb.Ring, center, fromN, toN orb.Point, w float64) orb.Ring {
	a1 := math.Atan2(fromN[1], fromN[0])
	a2 := math.Atan2(toN[1], toN[0])

	delta := a2 - a1
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}

	steps := int(math.Abs(delta) / arcStepRadians)
	for i := 1; i <= steps; i++ {
		a := a1 + delta*float64(i)/float64(steps+1)
		ring = append(ring, orb.Point{
			center[0] + w*math.Cos(a),
			center[1] + w*math.Sin(a),
		})
	}

	return ring
}

// circleRing samples a full circle of radius w around center.
func circleRing(center orb.Point, w float64) orb.Ring {
	steps := int(2 * math.Pi / arcStepRadians)
	ring := make(orb.Ring, 0, steps)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		ring = append(ring, orb.Point{
			center[0] + w*math.Cos(a),
			center[1] + w*math.Sin(a),
		})
	}

	return ring
}

// leftNormal returns the unit normal to the left of the segment a->b.
func leftNormal(a, b orb.Point) orb.Point {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return orb.Point{0, 1}
	}

	return orb.Point{-dy / length, dx / length}
}

func offset(pt, n orb.Point, w float64) orb.Point {
	return orb.Point{pt[0] + n[0]*w, pt[1] + n[1]*w}
}

func reverse(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, pt := range line {
		out[len(line)-1-i] = pt
	}

	return out
}

// dedupe drops consecutive points closer than 1cm so zero-length segments
// never produce degenerate normals.
func dedupe(line orb.LineString) orb.LineString {
	out := line[:1]
	for _, pt := range line[1:] {
		last := out[len(out)-1]
		if planarDistance(pt, last) > 0.01 {
			out = append(out, pt)
		}
	}

	return out
}

func planarDistance(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// pointSegmentDistance returns the planar distance from p to the segment ab.
func pointSegmentDistance(p, a, b orb.Point) float64 {
	abx := b[0] - a[0]
	aby := b[1] - a[1]
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return planarDistance(p, a)
	}

	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := orb.Point{a[0] + t*abx, a[1] + t*aby}

	return planarDistance(p, closest)
}
