package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect file...",
		Short: "Print the content tree and evidence of manifests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				ds, err := a.readDataset(path)
				if err != nil {
					return err
				}
				inspect(a.stdout, path, ds)
			}
			return nil
		},
	}
}

func inspect(w io.Writer, path string, ds *dicom.Dataset) {
	classUID := ds.GetString(dicom.TagSOPClassUID)
	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "SOP:      %s (%s)\n", ds.GetString(dicom.TagSOPInstanceUID), types.GetSOPClassInfo(classUID).Name)
	fmt.Fprintf(w, "Study:    %s\n", ds.GetString(dicom.TagStudyInstanceUID))
	fmt.Fprintf(w, "Patient:  %s [%s]\n", ds.GetString(dicom.TagPatientName), ds.GetString(dicom.TagPatientID))
	fmt.Fprintf(w, "Content:  %s %s\n", ds.GetString(dicom.TagContentDate), ds.GetString(dicom.TagContentTime))

	fmt.Fprintln(w, "\nContent tree:")
	tree, err := sr.DecodeTree(ds)
	if err != nil {
		fmt.Fprintf(w, "  cannot decode: %v\n", err)
	} else {
		fmt.Fprint(w, sr.Format(tree))
	}

	fmt.Fprintln(w, "\nEvidence:")
	total := 0
	for _, study := range ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		fmt.Fprintf(w, "  Study %s\n", study.GetString(dicom.TagStudyInstanceUID))
		for _, series := range study.GetSequence(dicom.TagReferencedSeriesSequence) {
			refs := series.GetSequence(dicom.TagReferencedSOPSequence)
			total += len(refs)
			fmt.Fprintf(w, "    Series %s: %d instance(s)", series.GetString(dicom.TagSeriesInstanceUID), len(refs))
			if loc := series.GetString(dicom.TagRetrieveLocationUID); loc != "" {
				fmt.Fprintf(w, " location %s", loc)
			}
			if url := series.GetString(dicom.TagRetrieveURL); url != "" {
				fmt.Fprintf(w, " url %s", url)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "  %d referenced instance(s)\n", total)
}
