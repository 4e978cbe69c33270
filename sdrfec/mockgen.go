package sdrfec

//go:generate go run go.uber.org/mock/mockgen -typed=false -package sdrfec -destination mock_codec_test.go github.com/sdrfec/sdrfec/fec Codec
