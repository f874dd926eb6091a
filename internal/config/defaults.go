package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mitsumori/data/db/predictions.db"
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "/usr/local/var/mitsumori/data/models"
	}
	if cfg.Artifacts.Format == "" {
		cfg.Artifacts.Format = "onnx"
	}
	ext := "." + cfg.Artifacts.Format

	p := &cfg.Artifacts.Prediction
	if p.Scaler == "" {
		p.Scaler = "price_prediction_scaler" + ext
	}
	if p.Model == "" {
		p.Model = "price_prediction_model" + ext
	}
	if p.Features == "" {
		p.Features = "price_prediction_features.json"
	}
	if p.Encoders == "" {
		p.Encoders = "price_prediction_encoders.json"
	}

	r := &cfg.Artifacts.Recommendation
	if r.Scaler == "" {
		r.Scaler = "recommendation_scaler" + ext
	}
	if r.Features == "" {
		r.Features = "recommendation_features.json"
	}
	if r.Encoders == "" {
		r.Encoders = "recommendation_encoders.json"
	}
	if r.Houses == "" {
		r.Houses = "recommendation_houses.json"
	}
	if r.Matrix == "" {
		r.Matrix = "recommendation_X_scaled.npy"
	}

	if cfg.ONNX.InputName == "" {
		cfg.ONNX.InputName = "float_input"
	}
	if cfg.ONNX.OutputName == "" {
		cfg.ONNX.OutputName = "variable"
	}
	if cfg.Engine.DefaultLimit == 0 {
		cfg.Engine.DefaultLimit = 5
	}
	if cfg.Engine.MaxLimit == 0 {
		cfg.Engine.MaxLimit = 50
	}
	if cfg.Engine.PriceCacheSize == 0 {
		cfg.Engine.PriceCacheSize = 1024
	}
}
