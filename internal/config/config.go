package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config reúne toda a configuração do controlador lida do ambiente
type Config struct {
	// Serial / ESP32
	SerialPort string
	BaudRate   int

	// Serviços remotos
	PredictorURL string
	ModelPath    string
	CollectorURL string

	// Redis (objetivo de navegação)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS
	NATSURL     string
	NATSSubject string

	// Painel web
	WebPort int

	// Ciclo de controle
	PipelineCadence time.Duration
	SensorCadence   time.Duration
	ManualCadence   time.Duration

	// Política de bloqueio
	MaxFailures  int
	RestDuration time.Duration

	// Limiares de segurança da resolução de obstáculos (cm)
	UltrasonicSafetyCm  float64
	LidarForwardClearCm float64
	LidarSideClearCm    float64
	UltraOnlyTurnCm     float64
	UltraOnlyMoveCm     float64

	// Limiares do planejador de objetivos
	GoalDistanceM  float64
	GoalHeadingDeg float64

	// Objetivo fixo quando o Redis não está configurado
	FallbackGoalX   float64
	FallbackGoalY   float64
	HasFallbackGoal bool

	// Simulação e logs
	Simulate bool
	LogDir   string
}

// Load carrega a configuração do .env e do ambiente. O .env é opcional -
// no robô real tudo vem do ambiente do serviço.
func Load() *Config {
	// .env opcional
	godotenv.Load()

	baudRate, _ := strconv.Atoi(getEnv("SERIAL_BAUD", "115200"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	webPort, _ := strconv.Atoi(getEnv("WEB_PORT", "8080"))
	pipelineMs, _ := strconv.Atoi(getEnv("PIPELINE_CADENCE_MS", "100"))
	sensorMs, _ := strconv.Atoi(getEnv("SENSOR_CADENCE_MS", "200"))
	manualMs, _ := strconv.Atoi(getEnv("MANUAL_CADENCE_MS", "1000"))
	maxFailures, _ := strconv.Atoi(getEnv("STUCK_MAX_FAILURES", "5"))
	restSeconds, _ := strconv.Atoi(getEnv("STUCK_REST_SECONDS", "300"))

	cfg := &Config{
		SerialPort:      getEnv("SERIAL_PORT", "/dev/ttyUSB0"),
		BaudRate:        baudRate,
		PredictorURL:    getEnv("PREDICTOR_URL", "http://localhost:5000"),
		ModelPath:       getEnv("MODEL_PATH", ""),
		CollectorURL:    getEnv("COLLECTOR_URL", "http://localhost:8000"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         redisDB,
		NATSURL:         getEnv("NATS_URL", ""),
		NATSSubject:     getEnv("NATS_SUBJECT", "caren.decisoes"),
		WebPort:         webPort,
		PipelineCadence: time.Duration(pipelineMs) * time.Millisecond,
		SensorCadence:   time.Duration(sensorMs) * time.Millisecond,
		ManualCadence:   time.Duration(manualMs) * time.Millisecond,
		MaxFailures:     maxFailures,
		RestDuration:    time.Duration(restSeconds) * time.Second,

		UltrasonicSafetyCm:  getEnvFloat("ULTRA_SAFETY_CM", 15.0),
		LidarForwardClearCm: getEnvFloat("LIDAR_FORWARD_CLEAR_CM", 50.0),
		LidarSideClearCm:    getEnvFloat("LIDAR_SIDE_CLEAR_CM", 40.0),
		UltraOnlyTurnCm:     getEnvFloat("ULTRA_ONLY_TURN_CM", 20.0),
		UltraOnlyMoveCm:     getEnvFloat("ULTRA_ONLY_MOVE_CM", 30.0),

		GoalDistanceM:  getEnvFloat("GOAL_DISTANCE_M", 0.2),
		GoalHeadingDeg: getEnvFloat("GOAL_HEADING_DEG", 5.0),

		Simulate: getEnv("SIMULATE", "false") == "true",
		LogDir:   getEnv("LOG_DIR", "logs"),
	}

	if x := os.Getenv("GOAL_X"); x != "" {
		if y := os.Getenv("GOAL_Y"); y != "" {
			gx, errX := strconv.ParseFloat(x, 64)
			gy, errY := strconv.ParseFloat(y, 64)
			if errX == nil && errY == nil {
				cfg.FallbackGoalX = gx
				cfg.FallbackGoalY = gy
				cfg.HasFallbackGoal = true
			}
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
