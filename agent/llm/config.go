package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
	llmclientx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/llmclient"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"groq"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	PatientModel       string  `envconfig:"PATIENT_MODEL" split_words:"true"`
	DoctorModel        string  `envconfig:"DOCTOR_MODEL" split_words:"true"`
	PatientTemperature float32 `envconfig:"PATIENT_TEMPERATURE" split_words:"true" default:"-1"`
	DoctorTemperature  float32 `envconfig:"DOCTOR_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	base := c.ClientConfigFor(contractx.AgentTypePatient)
	if _, _, err := base.Resolve(); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if provider := strings.ToLower(strings.TrimSpace(c.Provider)); provider != llmclientx.ProviderOllama {
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: llm api key is required for provider %q", contractx.ErrValidation, c.Provider)
		}
	}
	return nil
}

// ClientConfigFor maps the per-variant overrides onto a client config.
func (c Config) ClientConfigFor(agentType contractx.AgentType) llmclientx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypePatient:
		if v := strings.TrimSpace(c.PatientModel); v != "" {
			modelName = v
		}
		if c.PatientTemperature >= 0 {
			temp = c.PatientTemperature
		}
	case contractx.AgentTypeDoctor:
		if v := strings.TrimSpace(c.DoctorModel); v != "" {
			modelName = v
		}
		if c.DoctorTemperature >= 0 {
			temp = c.DoctorTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return llmclientx.Config{
		Provider:           strings.TrimSpace(c.Provider),
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
