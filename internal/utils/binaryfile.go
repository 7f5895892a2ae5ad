// Package utils holds file helpers for raw sample dumps.
package utils

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadBinary loads a file of little-endian fixed-size values.
func ReadBinary[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	size := binary.Size(new(T))
	if size <= 0 {
		return nil, fmt.Errorf("%T is not a fixed-size type", *new(T))
	}
	if fileInfo.Size()%int64(size) != 0 {
		return nil, fmt.Errorf("file size %d is not a multiple of %d", fileInfo.Size(), size)
	}

	data := make([]T, int(fileInfo.Size())/size)
	if err := binary.Read(bufio.NewReader(file), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// WriteBinary stores data as little-endian fixed-size values.
func WriteBinary[T any](filename string, data []T) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}

// ReadTxt reads whitespace separated values.
func ReadTxt[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data []T
	r := bufio.NewReader(file)
	for {
		var element T
		if _, err := fmt.Fscan(r, &element); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		data = append(data, element)
	}
	return data, nil
}

// WriteTxt writes f(element) for each element on its own line.
func WriteTxt[V, T any](filename string, data []T, f func(T) V) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, element := range data {
		if _, err := fmt.Fprintln(w, f(element)); err != nil {
			file.Close()
			return fmt.Errorf("failed to write file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}
