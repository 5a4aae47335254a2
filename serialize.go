package hmm

import (
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// init registers every concrete Distribution (and the compiled Model)
// with the serializer package's typed-deserializer registry.
func init() {
	serializer.RegisterTypedDeserializer((&Uniform{}).SerializerType(), DeserializeUniform)
	serializer.RegisterTypedDeserializer((&Normal{}).SerializerType(), DeserializeNormal)
	serializer.RegisterTypedDeserializer((&Exponential{}).SerializerType(), DeserializeExponential)
	serializer.RegisterTypedDeserializer((&Gamma{}).SerializerType(), DeserializeGamma)
	serializer.RegisterTypedDeserializer((&InverseGamma{}).SerializerType(), DeserializeInverseGamma)
	serializer.RegisterTypedDeserializer((&Discrete{}).SerializerType(), DeserializeDiscrete)
	serializer.RegisterTypedDeserializer(kernelSerializerType(kernelGaussian), DeserializeGaussianKernelDensity)
	serializer.RegisterTypedDeserializer(kernelSerializerType(kernelUniform), DeserializeUniformKernelDensity)
	serializer.RegisterTypedDeserializer(kernelSerializerType(kernelTriangle), DeserializeTriangleKernelDensity)
	serializer.RegisterTypedDeserializer((&Mixture{}).SerializerType(), DeserializeMixture)
	serializer.RegisterTypedDeserializer((&Model{}).SerializerType(), DeserializeModel)
}

func encodeFloats(vals ...float64) []byte {
	data, err := serializer.SerializeAny(vals)
	if err != nil {
		// A []float64 is always serializable; a failure here means the
		// serializer package itself is broken.
		panic(err)
	}
	return data
}

func decodeFloats(d []byte) ([]float64, error) {
	var vals []float64
	if err := serializer.DeserializeAny(d, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func DeserializeUniform(d []byte) (u *Uniform, err error) {
	defer essentials.AddCtxTo("deserialize Uniform", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) != 2 {
		return nil, errors.New("invalid slice size")
	}
	return &Uniform{A: vals[0], B: vals[1]}, nil
}

func DeserializeNormal(d []byte) (n *Normal, err error) {
	defer essentials.AddCtxTo("deserialize Normal", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) != 2 {
		return nil, errors.New("invalid slice size")
	}
	return &Normal{Mu: vals[0], Sigma: vals[1]}, nil
}

func DeserializeExponential(d []byte) (e *Exponential, err error) {
	defer essentials.AddCtxTo("deserialize Exponential", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) != 1 {
		return nil, errors.New("invalid slice size")
	}
	return &Exponential{Lambda: vals[0]}, nil
}

func DeserializeGamma(d []byte) (g *Gamma, err error) {
	defer essentials.AddCtxTo("deserialize Gamma", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) != 2 {
		return nil, errors.New("invalid slice size")
	}
	return &Gamma{Alpha: vals[0], Beta: vals[1]}, nil
}

func DeserializeInverseGamma(d []byte) (ig *InverseGamma, err error) {
	defer essentials.AddCtxTo("deserialize InverseGamma", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) != 2 {
		return nil, errors.New("invalid slice size")
	}
	return &InverseGamma{gamma: Gamma{Alpha: vals[0], Beta: vals[1]}}, nil
}

func encodeDiscreteTable(syms []Obs, logProbs []float64) ([]byte, error) {
	sers := make([]serializer.Serializer, len(syms))
	for i, s := range syms {
		ser, ok := s.(serializer.Serializer)
		if !ok {
			return nil, fmt.Errorf("hmm: Discrete symbol not a Serializer: %T", s)
		}
		sers[i] = ser
	}
	return serializer.SerializeAny(sers, logProbs)
}

func DeserializeDiscrete(d []byte) (disc *Discrete, err error) {
	defer essentials.AddCtxTo("deserialize Discrete", &err)
	var syms []serializer.Serializer
	var logProbs []float64
	if err := serializer.DeserializeAny(d, &syms, &logProbs); err != nil {
		return nil, err
	}
	if len(syms) != len(logProbs) {
		return nil, errors.New("mismatched slice lengths")
	}
	disc = &Discrete{logP: map[Obs]float64{}}
	for i, s := range syms {
		disc.logP[s] = logProbs[i]
	}
	return disc, nil
}

func kernelSerializerType(shape kernelShape) string {
	return (&kernelDensity{shape: shape}).SerializerType()
}

func decodeKernelDensity(shape kernelShape, d []byte) (k *kernelDensity, err error) {
	defer essentials.AddCtxTo("deserialize kernel density", &err)
	vals, err := decodeFloats(d)
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 {
		return nil, errors.New("invalid slice size")
	}
	bandwidth := vals[0]
	n := int(vals[1])
	if n < 0 || len(vals) != 2+2*n {
		return nil, errors.New("invalid slice size")
	}
	return &kernelDensity{
		shape:     shape,
		bandwidth: bandwidth,
		points:    append([]float64(nil), vals[2:2+n]...),
		weights:   append([]float64(nil), vals[2+n:2+2*n]...),
	}, nil
}

func DeserializeGaussianKernelDensity(d []byte) (*GaussianKernelDensity, error) {
	k, err := decodeKernelDensity(kernelGaussian, d)
	if err != nil {
		return nil, err
	}
	return &GaussianKernelDensity{k}, nil
}

func DeserializeUniformKernelDensity(d []byte) (*UniformKernelDensity, error) {
	k, err := decodeKernelDensity(kernelUniform, d)
	if err != nil {
		return nil, err
	}
	return &UniformKernelDensity{k}, nil
}

func DeserializeTriangleKernelDensity(d []byte) (*TriangleKernelDensity, error) {
	k, err := decodeKernelDensity(kernelTriangle, d)
	if err != nil {
		return nil, err
	}
	return &TriangleKernelDensity{k}, nil
}

func encodeMixture(children []Distribution, logWeights []float64) ([]byte, error) {
	sers := make([]serializer.Serializer, len(children))
	for i, c := range children {
		sers[i] = c
	}
	return serializer.SerializeAny(sers, logWeights)
}

func DeserializeMixture(d []byte) (m *Mixture, err error) {
	defer essentials.AddCtxTo("deserialize Mixture", &err)
	var sers []serializer.Serializer
	var logWeights []float64
	if err := serializer.DeserializeAny(d, &sers, &logWeights); err != nil {
		return nil, err
	}
	if len(sers) != len(logWeights) {
		return nil, errors.New("mismatched slice lengths")
	}
	children := make([]Distribution, len(sers))
	for i, s := range sers {
		dist, ok := s.(Distribution)
		if !ok {
			return nil, fmt.Errorf("hmm: not a Distribution: %T", s)
		}
		children[i] = dist
	}
	return &Mixture{Children: children, logWeights: logWeights}, nil
}
