package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"caren/pkg/models"
)

// requestTimeout limita cada predição para não travar o ciclo de controle
const requestTimeout = 2 * time.Second

// FailureHandler recebe os erros de predição para registro
type FailureHandler func(err error)

// Predictor consulta o serviço de inferência HTTP. A rede ou o modelo
// podem falhar a qualquer momento; a resposta de segurança é sempre
// DETENIDO - a camada de obstáculos continua mandando.
type Predictor struct {
	baseURL   string
	modelPath string
	client    *http.Client

	mu        sync.Mutex
	onFailure FailureHandler
	failures  int64
}

// predictionRequest é o corpo enviado ao serviço de inferência
type predictionRequest struct {
	Estado models.SensorSnapshot `json:"estado"`
}

// predictionResponse é a resposta do serviço de inferência
type predictionResponse struct {
	Accion string `json:"accion"`
}

// NewPredictor cria o cliente de inferência
func NewPredictor(baseURL, modelPath string) *Predictor {
	return &Predictor{
		baseURL:   baseURL,
		modelPath: modelPath,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// SetFailureHandler registra o callback de erro de predição
func (p *Predictor) SetFailureHandler(fn FailureHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailure = fn
}

// Predict envia o estado atual e retorna a ação sugerida pelo modelo.
// Qualquer falha retorna DETENIDO.
func (p *Predictor) Predict(snap models.SensorSnapshot) models.Action {
	body, err := json.Marshal(predictionRequest{Estado: snap})
	if err != nil {
		p.fail(fmt.Errorf("erro ao serializar estado: %v", err))
		return models.ActionStop
	}

	resp, err := p.client.Post(p.baseURL+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		p.fail(fmt.Errorf("erro na requisição de predição: %v", err))
		return models.ActionStop
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.fail(fmt.Errorf("serviço de inferência retornou status %d", resp.StatusCode))
		return models.ActionStop
	}

	var pred predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		p.fail(fmt.Errorf("erro ao decodificar predição: %v", err))
		return models.ActionStop
	}

	action, err := models.ParseAction(pred.Accion)
	if err != nil {
		p.fail(fmt.Errorf("predição inválida: %v", err))
		return models.ActionStop
	}

	return action
}

// CheckAvailable verifica se o modelo pode ser usado: o arquivo do modelo
// existe ou o serviço de inferência responde.
func (p *Predictor) CheckAvailable() bool {
	if p.modelPath != "" {
		if _, err := os.Stat(p.modelPath); err == nil {
			return true
		}
	}

	resp, err := p.client.Get(p.baseURL + "/predict")
	if err != nil {
		return false
	}
	resp.Body.Close()

	// Qualquer resposta HTTP conta - 405 significa serviço vivo
	return true
}

// Failures retorna o total de predições falhadas
func (p *Predictor) Failures() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Predictor) fail(err error) {
	p.mu.Lock()
	p.failures++
	fn := p.onFailure
	p.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}
