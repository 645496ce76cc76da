package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"reactor_sim/sensorlog"
)

type Options struct {
	ConfigPath    string
	OutputDataDir string
	Mode          string
	IsPlotSaved   bool
	SensorPath    string
	LogLevel      string
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lv, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lv)
	return logger, nil
}

/*
Runs the simulation and writes its results.

	Args:
	    cfg: run configuration
	    output_data_dir: output directory, created if missing
	    is_plot_saved: whether to draw the temperature plot
	    logger

	Returns:
	    the probe fits when a sensor log and probes are configured

	Notes:
	    With [sensor] conditions the initial operating conditions come from
	    the sensor log; breakpoints still apply as configured.
*/
func simulate(cfg *Config, output_data_dir string, is_plot_saved bool, logger *log.Logger) ([]ProbeFit, error) {
	// ---- 事前準備 ----

	if err := os.MkdirAll(output_data_dir, 0755); err != nil {
		return nil, err
	}

	var sl *sensorlog.Log
	if cfg.Sensor.Path != "" {
		logger.Infof("Load sensor log `%s`", cfg.Sensor.Path)
		var err error
		if sl, err = sensorlog.Load(cfg.Sensor.Path); err != nil {
			return nil, err
		}
	}

	conditions := cfg.Conditions
	if sl != nil && cfg.Sensor.Conditions {
		var err error
		if conditions, err = conditionsFromLog(sl, cfg.Sensor); err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"feed_temperature": conditions.FeedTemperature,
			"water_flow":       conditions.WaterFlow,
			"anhydride_flow":   conditions.AnhydrideFlow,
		}).Info("conditions from sensor log")
	}

	m := cfg.Model
	m.Logger = logger
	logger.WithFields(log.Fields{
		"stages":      m.Stages,
		"volume":      m.Volume,
		"method":      m.Method,
		"breakpoints": len(cfg.Breakpoints),
	}).Info("simulation start")

	// ---- 計算 ----

	res, err := m.Run(conditions, cfg.Start, cfg.End, cfg.Breakpoints...)
	if err != nil {
		return nil, err
	}
	if err := res.Check(); err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"samples":     res.Len(),
		"evaluations": res.Stats.EvaluationCount,
	}).Info("simulation done")

	// ---- 計算結果ファイルの保存 ----

	result_path := filepath.Join(output_data_dir, "result.csv")
	logger.Infof("Save calculation results to `%s`", result_path)
	if err := RecordResult(res).Save(result_path); err != nil {
		return nil, err
	}

	var fits []ProbeFit
	if sl != nil && len(cfg.Probes) > 0 {
		logger.Infof("Compare with sensor log `%s`", cfg.Sensor.Path)
		fits, err = compare(res, sl, cfg.Sensor, cfg.Probes)
		if err != nil {
			if _, ok := err.(ErrorList); !ok {
				return nil, err
			}
			logger.Warnf("probes skipped:%s", err)
		}
		for _, f := range fits {
			logger.WithFields(log.Fields{
				"stage": f.Stage,
				"rmse":  f.RMSE,
				"bias":  f.Bias,
			}).Infof("probe %s", f.Tag)
		}
	}

	if is_plot_saved {
		plot_path := filepath.Join(output_data_dir, "temperature.png")
		logger.Infof("Save temperature plot to `%s`", plot_path)
		if err := savePlot(res, fits, plot_path); err != nil {
			return nil, err
		}
	}
	return fits, nil
}

func run(opt Options) error {
	cfg, err := loadConfig(opt.ConfigPath)
	if err != nil {
		return err
	}
	if opt.SensorPath != "" {
		cfg.Sensor.Path = opt.SensorPath
	}
	level := cfg.LogLevel
	if opt.LogLevel != "" {
		level = opt.LogLevel
	}
	logger, err := newLogger(level)
	if err != nil {
		return err
	}

	start := time.Now()
	switch opt.Mode {
	case "simulate":
		_, err = simulate(cfg, opt.OutputDataDir, opt.IsPlotSaved, logger)
	case "arrhenius":
		_, err = estimateArrhenius(cfg, logger)
	default:
		err = fmt.Errorf("unknown mode %q", opt.Mode)
	}
	if err != nil {
		return err
	}

	logger.Infof("elapsed_time: %v", time.Since(start))
	return nil
}

func main() {
	var opt Options
	flag.StringVar(&opt.ConfigPath, "config", "", "計算条件のiniファイル")
	flag.StringVar(&opt.OutputDataDir, "o", ".", "出力フォルダ")
	flag.StringVar(&opt.Mode, "mode", "simulate", "simulate または arrhenius")
	flag.BoolVar(&opt.IsPlotSaved, "plot", false, "温度のグラフを出力するか否かを指定します。")
	flag.StringVar(&opt.SensorPath, "sensor", "", "比較するセンサーログのCSVファイル")
	flag.StringVar(&opt.LogLevel, "log", "", "ログレベルを指定します。 (Default=iniの[log] level)")

	// 引数を受け取る
	flag.Parse()

	if err := run(opt); err != nil {
		log.Fatal(err)
	}
}
