package export

import "context"

// Service runs the full export pipeline: aggregate the user's data,
// then render it in the requested format.
type Service struct {
	aggregator *Aggregator
	renderer   *Renderer
}

func NewService(aggregator *Aggregator, renderer *Renderer) *Service {
	return &Service{aggregator: aggregator, renderer: renderer}
}

func (s *Service) Export(ctx context.Context, userID int64, format Format) (*Document, error) {
	snap, err := s.aggregator.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(ctx, snap, format)
}
