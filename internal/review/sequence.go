package review

// BusinessStage is the bottleneck identified by the business sequence check.
type BusinessStage string

const (
	StageOffer    BusinessStage = "offer"
	StageLeads    BusinessStage = "leads"
	StageSales    BusinessStage = "sales"
	StageDelivery BusinessStage = "delivery"
	StageScaling  BusinessStage = "scaling"
)

// SequenceQuestion is one yes/no question; a "no" identifies Stage.
type SequenceQuestion struct {
	Prompt string
	Stage  BusinessStage
}

var sequenceQuestions = []SequenceQuestion{
	{Prompt: "Do you have a proven offer that people are actively buying?", Stage: StageOffer},
	{Prompt: "Do you have consistent leads seeing this offer?", Stage: StageLeads},
	{Prompt: "Are you closing these leads consistently?", Stage: StageSales},
	{Prompt: "Are you delivering results consistently?", Stage: StageDelivery},
}

var stageTasks = map[BusinessStage]string{
	StageOffer:    "Get 10 customer conversations about your offer today",
	StageLeads:    "Do 100 direct outreach messages today",
	StageSales:    "Do 10 sales calls today",
	StageDelivery: "Interview 3 customers about their experience",
	StageScaling:  "Create one system to remove yourself from delivery",
}

// PriorityTask is the suggested task for a stage.
func PriorityTask(stage BusinessStage) string {
	return stageTasks[stage]
}

// SequenceCheck walks the questions in order; the first "no" decides the stage.
type SequenceCheck struct {
	index int
	stage BusinessStage
}

// Question returns the pending question, or false once a stage is known.
func (s *SequenceCheck) Question() (SequenceQuestion, bool) {
	if s.stage != "" || s.index >= len(sequenceQuestions) {
		return SequenceQuestion{}, false
	}
	return sequenceQuestions[s.index], true
}

// Answer records a yes/no reply and returns the stage once decided.
func (s *SequenceCheck) Answer(yes bool) (BusinessStage, bool) {
	q, ok := s.Question()
	if !ok {
		return s.stage, s.stage != ""
	}
	if !yes {
		s.stage = q.Stage
		return s.stage, true
	}
	s.index++
	if s.index == len(sequenceQuestions) {
		s.stage = StageScaling
		return s.stage, true
	}
	return "", false
}

func (s *SequenceCheck) Stage() BusinessStage { return s.stage }

func (s *SequenceCheck) Reset() { *s = SequenceCheck{} }
