package config

import "strings"

var ExampleYaml = `
devices:
  tyre.front_left:
    name: Front left tyre
  tyre.front_right:
    name: Front right tyre
endpoints:
  mqtt:
    broker: tcp://127.0.0.1:1883
protocols:
  tpms:
    "0C:3D:5E:4E:8B:8A": tyre.front_left
    "0c:3d:5e:4e:8b:e6": tyre.front_right
tpms:
  name: DJTPMS
  window: 10s
  repeat: 2m
`

var ExampleConfig = Must(OpenReader(strings.NewReader(ExampleYaml)))
