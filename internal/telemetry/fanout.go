package telemetry

import "caren/pkg/models"

// Sink recebe cada decisão tomada pelo ciclo de controle
type Sink interface {
	Emit(record models.DecisionRecord)
}

// Fanout replica cada decisão para vários destinos (coletor HTTP,
// painéis WebSocket, NATS). Destinos nil são ignorados.
type Fanout struct {
	sinks []Sink
}

// NewFanout cria o fanout com os destinos dados
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Emit entrega a decisão a todos os destinos
func (f *Fanout) Emit(record models.DecisionRecord) {
	for _, s := range f.sinks {
		s.Emit(record)
	}
}
