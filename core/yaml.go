package core

import "gopkg.in/yaml.v3"

func unmarshalYAML(raw []byte, cfg interface{}) error {
	return yaml.Unmarshal(raw, cfg)
}

func marshalYAML(cfg interface{}) ([]byte, error) {
	return yaml.Marshal(cfg)
}
