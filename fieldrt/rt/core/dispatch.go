package core

// WorkgroupSize matches @workgroup_size in particles.wgsl.
const WorkgroupSize = 256

// DispatchPadding is the number of idle invocations needed to round length up
// to a multiple of group.
func DispatchPadding(length, group uint32) uint32 {
	if group == 0 {
		return 0
	}
	return (group - length%group) % group
}

// DispatchCount is the minimal number of workgroups of size group covering
// length elements.
func DispatchCount(length, group uint32) uint32 {
	if group == 0 {
		return 0
	}
	count := length / group
	if length%group != 0 {
		count++
	}
	return count
}

// Stage names one compute step of a frame.
type Stage int

const (
	StageSeed Stage = iota
	StageSampleField
	StageIntegrate
)

func (s Stage) String() string {
	switch s {
	case StageSeed:
		return "seed"
	case StageSampleField:
		return "sample_field"
	case StageIntegrate:
		return "integrate"
	}
	return "unknown"
}

// Dispatch is one compute pass over the particle store.
type Dispatch struct {
	Stage      Stage
	Workgroups uint32
}

// Step is a pending simulation step.
type Step struct {
	Dt   float32
	Seed float32
}

// PlanFrame lists the compute passes encoded ahead of the render pass. A nil
// step plans nothing; otherwise SampleField precedes Integrate.
func PlanFrame(step *Step, count uint32) []Dispatch {
	if step == nil || count == 0 {
		return nil
	}
	groups := DispatchCount(count, WorkgroupSize)
	return []Dispatch{
		{Stage: StageSampleField, Workgroups: groups},
		{Stage: StageIntegrate, Workgroups: groups},
	}
}

// PlanSeed is the one-shot seeding pass.
func PlanSeed(count uint32) Dispatch {
	return Dispatch{Stage: StageSeed, Workgroups: DispatchCount(count, WorkgroupSize)}
}
