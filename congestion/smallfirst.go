package congestion

import (
	"fmt"
	"math"

	"github.com/sarchlab/noclat/estimator"
	"gonum.org/v1/gonum/floats"
)

// SmallFirst lets small transmissions go first. The transmissions are sorted
// by volume and cut into phases of shrinking size; in each phase the
// bandwidth is shared in proportion to the volumes.
type SmallFirst struct {
	// Scale is the total injection rate of a phase, in flits per cycle. No
	// channel carries more than Scale.
	Scale float64

	// Alpha is the ratio between the sizes of two consecutive phases.
	Alpha float64

	PacketLength int
	InjectionCV  float64
}

// NewSmallFirst creates a SmallFirst manager with the given packet shape.
func NewSmallFirst(packetLength int, injectionCV float64) *SmallFirst {
	return &SmallFirst{
		Scale:        DefaultBandwidth,
		Alpha:        0.3,
		PacketLength: packetLength,
		InjectionCV:  injectionCV,
	}
}

// Inject splits the volumes into phases.
func (m *SmallFirst) Inject(volumes []Volume) ([]Phase, error) {
	err := m.mustBeValid(volumes)
	if err != nil {
		return nil, err
	}

	sorted := sortBySize(Merge(volumes))
	phases := make([]Phase, 0)

	for _, b := range m.partition(len(sorted)) {
		phases = append(phases, m.phase(sorted[b[0]:b[1]]))
	}

	return phases, nil
}

func (m *SmallFirst) mustBeValid(volumes []Volume) error {
	if m.PacketLength < 1 {
		return fmt.Errorf("%w: packet length %d is not positive",
			ErrInvalidVolume, m.PacketLength)
	}

	if m.Scale <= 0 || math.IsInf(m.Scale, 0) || math.IsNaN(m.Scale) {
		return fmt.Errorf("%w: scale %v is not a positive rate",
			ErrInvalidVolume, m.Scale)
	}

	if m.Alpha <= 0 || m.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %v is not in (0, 1)",
			ErrInvalidVolume, m.Alpha)
	}

	for _, v := range volumes {
		if v.Volume < 0 || math.IsNaN(v.Volume) || math.IsInf(v.Volume, 0) {
			return fmt.Errorf("%w: %d->%d has volume %v",
				ErrInvalidVolume, v.Src, v.Dst, v.Volume)
		}
	}

	return nil
}

// partition returns the [begin, end) bounds of the phases. The first phase
// holds ceil(n*alpha) transmissions, the next ceil(n*alpha^2), and so on.
func (m *SmallFirst) partition(n int) [][2]int {
	bounds := make([][2]int, 0)
	begin := 0
	power := m.Alpha

	for begin < n {
		end := begin + max(1, int(math.Ceil(float64(n)*power)))
		if end > n {
			end = n
		}

		bounds = append(bounds, [2]int{begin, end})
		begin = end
		power *= m.Alpha
	}

	return bounds
}

func (m *SmallFirst) phase(volumes []Volume) Phase {
	sizes := make([]float64, len(volumes))
	for i, v := range volumes {
		sizes[i] = v.Volume
	}

	total := floats.Sum(sizes)

	task := estimator.TaskConfig{
		Requests:     make([]estimator.Request, len(volumes)),
		PacketLength: m.PacketLength,
		InjectionCV:  m.InjectionCV,
	}

	for i, v := range volumes {
		rate := 0.0
		if total > 0 {
			rate = m.Scale * v.Volume / total
		}

		task.Requests[i] = estimator.Request{Src: v.Src, Dst: v.Dst, Rate: rate}
	}

	if len(volumes) == 1 {
		task.InjectionCV = 0
	}

	return Phase{Task: task, Volumes: volumes}
}
