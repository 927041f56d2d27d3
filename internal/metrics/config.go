package metrics

type Config struct {
	Port uint `yaml:"port"`
}
