// Package serialization reads and writes named tensors in the SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON object, name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes]
//
// The optional "__metadata__" header entry holds string key/value pairs.
// Supported dtypes are F32, F64 and I64. Tensors are attributed to the device
// passed to the reader, so files can be loaded straight onto an accelerator.
//
// Example usage:
//
//	tensors := map[string]*tensor.RawTensor{"input": x}
//	if err := serialization.WriteSafeTensors("in.safetensors", tensors, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	loaded, meta, err := serialization.ReadSafeTensors("in.safetensors", tensor.CUDA)
package serialization
