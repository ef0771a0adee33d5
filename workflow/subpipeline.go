package workflow

import "context"

// SubPipeline returns an Operation that executes child as one opaque unit.
// The payload is the child's *Result. Any child error, including resolution
// errors such as a cycle among the child's steps, fails the operation.
func SubPipeline(child *Pipeline) Operation {
	return subPipeline{child: child}
}

type subPipeline struct {
	child *Pipeline
}

func (s subPipeline) Run(ctx context.Context, _ *Results) (any, error) {
	res, err := s.child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}
