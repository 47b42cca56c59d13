package estimator

// ArchConfig describes the mesh network. All delays are in cycles and all
// capacities are in flits.
type ArchConfig struct {
	Dim                  int     `yaml:"dim" json:"dim"`
	NumRouters           int     `yaml:"num_routers" json:"num_routers"`
	PortsPerRouter       int     `yaml:"ports_per_router" json:"ports_per_router"`
	ArbitrationDelay     float64 `yaml:"arbitration_delay" json:"arbitration_delay"`
	SwitchingDelay       float64 `yaml:"switching_delay" json:"switching_delay"`
	WireDelay            float64 `yaml:"wire_delay" json:"wire_delay"`
	InputBufferCapacity  float64 `yaml:"input_buffer_capacity" json:"input_buffer_capacity"`
	OutputBufferCapacity float64 `yaml:"output_buffer_capacity" json:"output_buffer_capacity"`

	// FlitWidth is the number of bits in a flit. The estimator does not use
	// it; drivers use it to convert volumes into transmission time.
	FlitWidth int `yaml:"flit_width" json:"flit_width"`
}

// DefaultArchConfig returns an 8x8 mesh with single-cycle switches and wires.
func DefaultArchConfig() ArchConfig {
	return ArchConfig{
		Dim:                  8,
		NumRouters:           64,
		PortsPerRouter:       6,
		ArbitrationDelay:     2,
		SwitchingDelay:       1,
		WireDelay:            1,
		InputBufferCapacity:  4,
		OutputBufferCapacity: 1,
		FlitWidth:            16,
	}
}

// WithDim returns a copy of the config with a d x d mesh.
func (c ArchConfig) WithDim(d int) ArchConfig {
	c.Dim = d
	c.NumRouters = d * d

	return c
}

// A Request is a stream of packets injected at router Src and delivered at
// router Dst. Rate is in flits per cycle.
type Request struct {
	Src  int     `yaml:"src" json:"src"`
	Dst  int     `yaml:"dst" json:"dst"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// TaskConfig describes the traffic carried by the network.
type TaskConfig struct {
	Requests []Request `yaml:"requests" json:"requests"`

	// PacketLength is the average number of flits in a packet.
	PacketLength int `yaml:"packet_length" json:"packet_length"`

	// InjectionCV is the coefficient of variation of the packet arrival
	// process.
	InjectionCV float64 `yaml:"injection_cv" json:"injection_cv"`
}

// DefaultTaskConfig returns a task with no requests and 16-flit packets.
func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		PacketLength: 16,
		InjectionCV:  1,
	}
}
