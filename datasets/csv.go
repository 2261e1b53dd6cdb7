package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ReadCSV reads a headered CSV table of numbers. The column named target
// becomes Y and every other column a feature, in file order. An empty
// target selects the last column.
func ReadCSV(r io.Reader, target string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("ReadCSV", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}
	header = append([]string(nil), header...)
	if len(header) < 2 {
		return nil, errors.NewValueError("ReadCSV", "need at least one feature column and a target column")
	}

	targetIdx := len(header) - 1
	if target != "" {
		targetIdx = -1
		for i, name := range header {
			if name == target {
				targetIdx = i
				break
			}
		}
		if targetIdx < 0 {
			return nil, errors.NewValidationError("target", "column not found in header", target)
		}
	}

	features := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != targetIdx {
			features = append(features, name)
		}
	}

	var xs, ys []float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV line %d", line)
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %q", line, header[i])
			}
			if i == targetIdx {
				ys = append(ys, v)
			} else {
				xs = append(xs, v)
			}
		}
	}
	if len(ys) == 0 {
		return nil, errors.NewModelError("ReadCSV", "no data rows", errors.ErrEmptyData)
	}

	return &Dataset{
		X:        mat.NewDense(len(ys), len(features), xs),
		Y:        mat.NewDense(len(ys), 1, ys),
		Features: features,
		Target:   header[targetIdx],
	}, nil
}

// LoadCSV reads a dataset from the CSV file at path.
func LoadCSV(path, target string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open dataset")
	}
	defer f.Close()

	return ReadCSV(f, target)
}

// WriteCSV writes d with the features first and the target last.
func WriteCSV(w io.Writer, d *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append(append([]string(nil), d.Features...), d.Target)); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	n, m := d.Dims()
	record := make([]string, m+1)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			record[j] = strconv.FormatFloat(d.X.At(i, j), 'g', -1, 64)
		}
		record[m] = strconv.FormatFloat(d.Y.At(i, 0), 'g', -1, 64)
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write CSV row %d", i+1)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}
